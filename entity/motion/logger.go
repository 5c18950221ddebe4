package motion

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "motion")
