package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-advisor/internal/config"
	"resume-advisor/internal/types"
)

func TestLocalDocumentStore_Fetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cv.pdf"), []byte("%PDF-1.4"), 0o644))

	store := NewLocalDocumentStore(dir)
	path, cleanup, err := store.Fetch(context.Background(), "cv.pdf")
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, filepath.Join(dir, "cv.pdf"), path)
	assert.Equal(t, StoreLocal, store.Name())

	_, _, err = store.Fetch(context.Background(), "missing.pdf")
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestLocalDocumentStore_RejectsKeysOutsideRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "resumes")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2024"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "2024", "cv.pdf"), []byte("%PDF-1.4"), 0o644))
	secret := filepath.Join(parent, "secret.pdf")
	require.NoError(t, os.WriteFile(secret, []byte("%PDF-1.4"), 0o644))

	store := NewLocalDocumentStore(root)

	path, _, err := store.Fetch(context.Background(), "2024/../2024/cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2024", "cv.pdf"), path)

	for _, key := range []string{secret, "../secret.pdf", "2024/../../secret.pdf", "..", ".", ""} {
		_, _, err := store.Fetch(context.Background(), key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key=%q", key)
	}
}

func TestLocalDocumentStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, cleanup, err := NewLocalDocumentStore("").Fetch(ctx, "/tmp/x.pdf")
	assert.ErrorIs(t, err, context.Canceled)
	cleanup()
}

func TestSpoolToTemp(t *testing.T) {
	path, cleanup, err := spoolToTemp(strings.NewReader("content"), "a/b/resume.pdf")
	require.NoError(t, err)
	assert.Equal(t, ".pdf", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNewDocumentStore_Unknown(t *testing.T) {
	_, err := NewDocumentStore(context.Background(), "ftp", &config.Config{})
	assert.Error(t, err)

	s, err := NewDocumentStore(context.Background(), "", &config.Config{})
	require.NoError(t, err)
	assert.Equal(t, StoreLocal, s.Name())

	cfg := &config.Config{}
	cfg.Local.Root = t.TempDir()
	s, err = NewDocumentStore(context.Background(), StoreLocal, cfg)
	require.NoError(t, err)
	_, _, err = s.Fetch(context.Background(), "/etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestAnalyzeRequest_Validate(t *testing.T) {
	assert.Error(t, (&AnalyzeRequest{ObjectKey: "a.pdf"}).Validate())
	assert.Error(t, (&AnalyzeRequest{RequestID: "1"}).Validate())
	assert.NoError(t, (&AnalyzeRequest{RequestID: "1", ObjectKey: "a.pdf"}).Validate())

	var req AnalyzeRequest
	require.NoError(t, json.Unmarshal([]byte(`{"request_id":"r1","store":"minio","object_key":"cv/1.pdf","location":"Pune"}`), &req))
	assert.Equal(t, "minio", req.Store)
	assert.Equal(t, "Pune", req.Location)
}

func TestReportKey(t *testing.T) {
	assert.Equal(t, "app:report:analysis:abc:_default", reportKey("abc", ""))
	assert.Equal(t, "app:report:analysis:abc:pune", reportKey("abc", " Pune "))
	assert.NotEqual(t, reportKey("abc", "Pune"), reportKey("abc", "Delhi"))
}

// 以下测试需要真实服务，通过环境变量开启

func TestRedisReportCache_Integration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("未设置 TEST_REDIS_ADDRESS，跳过Redis集成测试")
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, &config.RedisConfig{Address: addr, DialTimeoutSeconds: 2, ReadTimeoutSeconds: 2, WriteTimeoutSeconds: 2})
	require.NoError(t, err)
	defer client.Close()

	cache := NewRedisReportCache(client, time.Minute)
	md5 := "test-" + uuid.NewString()

	_, ok, err := cache.Get(ctx, md5, "Pune")
	require.NoError(t, err)
	assert.False(t, ok)

	report := &types.AnalysisReport{ReportID: "r1", FileMD5: md5, Score: 64}
	require.NoError(t, cache.Put(ctx, md5, "Pune", report))

	_, ok, err = cache.Get(ctx, md5, "Delhi")
	require.NoError(t, err)
	assert.False(t, ok, "不同地点不共享缓存")

	got, ok, err := cache.Get(ctx, md5, "pune")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 64, int(got.Score))
	assert.Equal(t, "r1", got.ReportID)

	seen, err := cache.Seen(ctx, md5)
	require.NoError(t, err)
	assert.True(t, seen)

	client.Del(ctx, reportKey(md5, "Pune"))
}

func TestRabbitMQ_Integration(t *testing.T) {
	url := os.Getenv("TEST_RABBITMQ_URL")
	if url == "" {
		t.Skip("未设置 TEST_RABBITMQ_URL，跳过RabbitMQ集成测试")
	}

	queue := "resume.analyze.test." + uuid.NewString()[:8]
	mq, err := NewRabbitMQ(&config.RabbitMQConfig{URL: url, RequestQueue: queue})
	require.NoError(t, err)
	defer mq.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msgs, err := mq.Consume(ctx, queue, 1)
	require.NoError(t, err)
	require.NoError(t, mq.PublishJSON(ctx, "", queue, AnalyzeRequest{RequestID: "r1", ObjectKey: "cv.pdf"}))

	select {
	case msg := <-msgs:
		var req AnalyzeRequest
		require.NoError(t, json.Unmarshal(msg.Body, &req))
		assert.Equal(t, "r1", req.RequestID)
		assert.NotEmpty(t, msg.ID)
		require.NoError(t, msg.Ack())
	case <-ctx.Done():
		t.Fatal("未收到消息")
	}
}
