package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"resume-advisor/internal/config"
	"resume-advisor/internal/logger"
	"resume-advisor/internal/storage"
)

// resolveDocument 返回可读取的本地路径；--pdf 优先，其次从存储后端拉取 --key
func resolveDocument(ctx context.Context, cfg *config.Config) (string, func(), error) {
	if *pdfPath != "" {
		absPath, err := filepath.Abs(*pdfPath)
		if err != nil {
			return "", nil, fmt.Errorf("无法获取文件的绝对路径: %w", err)
		}
		return absPath, func() {}, nil
	}
	if *objectKey == "" {
		return "", nil, fmt.Errorf("必须提供 --pdf 或 --key")
	}

	store, err := storage.NewDocumentStore(ctx, *storeName, cfg)
	if err != nil {
		return "", nil, err
	}
	path, cleanup, err := store.Fetch(ctx, *objectKey)
	if err != nil {
		return "", nil, err
	}
	logger.Debug().Str("store", store.Name()).Str("key", *objectKey).Msg("已获取简历文件")
	return path, cleanup, nil
}

// writeJSON 输出到 --output 指定的文件或标准输出
func writeJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}
	data = append(data, '\n')

	if *outputPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(*outputPath, data, 0o644); err != nil {
		return fmt.Errorf("写入结果文件失败: %w", err)
	}
	logger.Info().Str("path", *outputPath).Msg("结果已保存")
	return nil
}
