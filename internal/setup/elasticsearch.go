package setup

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/privolio/privolio/internal/config"
	"github.com/privolio/privolio/internal/pkg/logger"
	"go.uber.org/zap"
)

// InitElasticsearch 初始化 Elasticsearch 客户端
// 未配置地址时返回 nil，审计事件将只落库不索引
func InitElasticsearch(cfg *config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	if len(cfg.Addresses) == 0 {
		logger.Info("Elasticsearch 未配置，审计事件不做索引")
		return nil, nil
	}

	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, err
	}

	// 尝试连接并获取集群信息，验证连接是否成功
	res, err := client.Info()
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		logger.Error("Error connecting to Elasticsearch", zap.String("status", res.Status()))
	} else {
		logger.Info("Elasticsearch client initialized successfully.")
	}
	return client, nil
}
