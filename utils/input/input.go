package input

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tsinghua-fib-lab/crossing-sim/utils/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoTimeout = 30 * time.Second

// Init 加载车辆生成记录
// 功能：根据配置从文件、缓存或MongoDB加载生成记录，筛选并校验
// 参数：config-配置对象，cacheDir-缓存目录，为空则禁用缓存
// 返回：校验并排序后的生成记录
// 算法说明：
// 1. 配置了文件路径时直接读取文件
// 2. 否则先尝试读取缓存{cacheDir}/{db}.{col}.yaml
// 3. 缓存不存在且未设置only_cache时从MongoDB下载，并写入缓存
// 4. 按ids筛选，最后校验
func Init(config config.Config, cacheDir string) (*Scenario, error) {
	path := config.Input.Scenario
	var s *Scenario
	var err error
	if path.File != "" {
		s, err = ReadFile(path.File)
	} else {
		s, err = loadWithCache(config.Input.URI, path, cacheDir)
	}
	if err != nil {
		return nil, err
	}
	if failed := s.Filter(path.IDs); len(failed) > 0 {
		log.Warnf("ignore unknown car ids %v", failed)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	log.Infof("loaded %d spawn records", len(s.Cars))
	return s, nil
}

// loadWithCache 优先读取缓存，否则从MongoDB下载
func loadWithCache(uri string, path config.InputPath, cacheDir string) (*Scenario, error) {
	if path.DB == "" || path.Col == "" {
		return nil, fmt.Errorf("input.scenario needs either file or db+col")
	}
	var cachePath string
	if preCheckCache(cacheDir) {
		cachePath = filepath.Join(cacheDir, path.GetCachePath())
		if _, err := os.Stat(cachePath); err == nil {
			log.Infof("load %s.%s from cache %s", path.DB, path.Col, cachePath)
			return ReadFile(cachePath)
		}
	}
	if path.OnlyCache {
		return nil, fmt.Errorf("no cache for %s.%s in %q", path.DB, path.Col, cacheDir)
	}
	if uri == "" {
		return nil, fmt.Errorf("input.uri is required to load %s.%s", path.DB, path.Col)
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	defer client.Disconnect(context.Background())

	log.Infof("start fetching from %s.%s", path.DB, path.Col)
	s, err := Download(ctx, client.Database(path.DB).Collection(path.Col))
	if err != nil {
		return nil, err
	}
	log.Infof("finish fetching from %s.%s", path.DB, path.Col)
	if cachePath != "" {
		if err := s.WriteFile(cachePath); err != nil {
			log.Errorf("failed to write cache: %v", err)
		}
	}
	return s, nil
}

// Download 从MongoDB集合下载全部生成记录
// 说明：按(creation_tick, id)升序查询
func Download(ctx context.Context, coll *mongo.Collection) (*Scenario, error) {
	opts := options.Find().SetSort(bson.D{{Key: "creation_tick", Value: 1}, {Key: "id", Value: 1}})
	cur, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	s := &Scenario{Cars: make([]SpawnRecord, 0)}
	if err := cur.All(ctx, &s.Cars); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return s, nil
}

// Upload 将生成记录写入MongoDB集合（先清空集合）
func Upload(ctx context.Context, coll *mongo.Collection, s *Scenario) error {
	if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear %s: %w", coll.Name(), err)
	}
	if len(s.Cars) == 0 {
		return nil
	}
	docs := make([]any, len(s.Cars))
	for i, r := range s.Cars {
		docs[i] = r
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert %s: %w", coll.Name(), err)
	}
	return nil
}

// Save 将生成记录上传到配置的MongoDB集合
func Save(uri string, path config.InputPath, s *Scenario) error {
	if uri == "" || path.DB == "" || path.Col == "" {
		return fmt.Errorf("input.uri and input.scenario db+col are required to upload")
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer client.Disconnect(context.Background())
	log.Infof("upload %d records to %s.%s", len(s.Cars), path.DB, path.Col)
	return Upload(ctx, client.Database(path.DB).Collection(path.Col), s)
}
