package channel

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "channel")
