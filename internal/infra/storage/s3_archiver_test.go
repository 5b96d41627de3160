package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/paimon-guide/guide-app/pkg/config"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Archiver_Archive(t *testing.T) {
	putter := &fakePutter{}
	a := newS3Archiver(putter, "guide-archive", "/analytics-archive/")
	a.now = func() time.Time { return time.Date(2024, 5, 10, 23, 0, 0, 0, time.UTC) }

	events := []*model.AnalyticsEvent{
		{ID: "e1", SessionID: "s1", PagePath: "/a"},
		{ID: "e2", SessionID: "s2", PagePath: "/b"},
	}
	key, err := a.Archive(context.Background(), events)
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	if !regexp.MustCompile(`^analytics-archive/2024/05/10/[0-9a-f-]{36}\.ndjson$`).MatchString(key) {
		t.Errorf("对象键格式错误: %s", key)
	}
	if aws.ToString(putter.input.Bucket) != "guide-archive" || aws.ToString(putter.input.Key) != key {
		t.Errorf("Bucket/Key 错误: %s %s", aws.ToString(putter.input.Bucket), aws.ToString(putter.input.Key))
	}
	if aws.ToInt64(putter.input.ContentLength) != int64(len(putter.body)) {
		t.Errorf("ContentLength 与实际长度不一致")
	}

	var lines []model.AnalyticsEvent
	scanner := bufio.NewScanner(bytes.NewReader(putter.body))
	for scanner.Scan() {
		var ev model.AnalyticsEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("行不是合法 JSON: %v", err)
		}
		lines = append(lines, ev)
	}
	if len(lines) != 2 || lines[1].ID != "e2" {
		t.Errorf("NDJSON 内容错误: %+v", lines)
	}
}

func TestS3Archiver_EmptyAndFailure(t *testing.T) {
	putter := &fakePutter{}
	a := newS3Archiver(putter, "b", "")

	key, err := a.Archive(context.Background(), nil)
	if err != nil || key != "" || putter.input != nil {
		t.Errorf("空批次不应上传, key=%q err=%v", key, err)
	}

	putter.err = errors.New("access denied")
	if _, err := a.Archive(context.Background(), []*model.AnalyticsEvent{{ID: "e1"}}); err == nil {
		t.Error("上传失败时应返回错误")
	}
}

func TestNewS3Archiver_DisabledWithoutBucket(t *testing.T) {
	a, err := NewS3Archiver(context.Background(), config.NewFromMap(map[string]interface{}{}))
	if err != nil || a != nil {
		t.Errorf("未配置 Bucket 时应返回 nil, got %v %v", a, err)
	}
}
