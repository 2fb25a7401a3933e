// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/config"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/model"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/log"
)

var ESClient *elasticsearch.Client

// InitES 初始化 Elasticsearch 客户端
func InitES(esCfg config.ElasticsearchConfig) error {
	cfg := elasticsearch.Config{
		Addresses: strings.Split(esCfg.Addresses, ","),
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(esCfg.IndexName)
}

// 未识别语句索引：utterance 使用英文分词，其余字段精确匹配。
const unresolvedMapping = `{
	"mappings": {
		"properties": {
			"session_id": { "type": "keyword" },
			"utterance": { "type": "text", "analyzer": "english" },
			"predicted_tag": { "type": "keyword" },
			"confidence": { "type": "float" },
			"tier": { "type": "keyword" },
			"timestamp": { "type": "date" }
		}
	}
}`

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(indexName string) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	defer res.Body.Close()
	// 如果 res.StatusCode 是 200，说明索引已存在
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	createRes, err := ESClient.Indices.Create(
		indexName,
		ESClient.Indices.Create.WithBody(strings.NewReader(unresolvedMapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, createRes.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// IndexUnresolved 把一条没能确定回答的语句写入索引。
func IndexUnresolved(ctx context.Context, indexName string, doc model.UnresolvedUtterance) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index: indexName,
		Body:  bytes.NewReader(docBytes),
	}
	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引文档到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index unresolved utterance")
	}
	return nil
}

// BuildUnresolvedQuery 构造检索请求体。query 为空时返回最近的记录。
func BuildUnresolvedQuery(query string, size int) map[string]interface{} {
	var q map[string]interface{}
	if strings.TrimSpace(query) == "" {
		q = map[string]interface{}{"match_all": map[string]interface{}{}}
	} else {
		q = map[string]interface{}{
			"match": map[string]interface{}{
				"utterance": map[string]interface{}{"query": query, "fuzziness": "AUTO"},
			},
		}
	}
	return map[string]interface{}{
		"size":  size,
		"query": q,
		"sort":  []interface{}{map[string]interface{}{"timestamp": map[string]interface{}{"order": "desc"}}},
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source model.UnresolvedUtterance `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchUnresolved 检索未识别的语句。
func SearchUnresolved(ctx context.Context, indexName, query string, size int) ([]model.UnresolvedUtterance, error) {
	body, err := json.Marshal(BuildUnresolvedQuery(query, size))
	if err != nil {
		return nil, err
	}
	res, err := ESClient.Search(
		ESClient.Search.WithContext(ctx),
		ESClient.Search.WithIndex(indexName),
		ESClient.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search error: %s", res.String())
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	out := make([]model.UnresolvedUtterance, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
