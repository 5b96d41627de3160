package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/paimon-guide/guide-app/internal/infra/persistence/memory"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "characters.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入种子文件失败: %v", err)
	}
	return path
}

func TestSeedCharacters(t *testing.T) {
	seed := `[
		{"id":"nahida","name":"纳西妲","birthday":"10-27","image":"/img/nahida.png"},
		{"id":"","name":"无ID"},
		{"id":"furina","name":"芙宁娜","birthday":"10-13"}
	]`

	testCases := []struct {
		name      string
		existing  []*model.Character
		seedFile  string
		wantCount int64
		wantErr   bool
	}{
		{"空目录导入有效记录", nil, writeSeed(t, seed), 2, false},
		{"已有数据时跳过", []*model.Character{{ID: "zhongli", Name: "钟离", Birthday: "12-31"}}, writeSeed(t, seed), 1, false},
		{"种子文件不存在", nil, filepath.Join(t.TempDir(), "missing.json"), 0, false},
		{"未配置种子文件", nil, "", 0, false},
		{"种子文件格式错误", nil, writeSeed(t, `{"id":`), 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := memory.NewCharacterRepository(tc.existing...)
			err := NewBootstrapper(repo, tc.seedFile).Initialize(context.Background())
			if (err != nil) != tc.wantErr {
				t.Fatalf("Initialize() error = %v, wantErr %v", err, tc.wantErr)
			}

			count, err := repo.Count(context.Background())
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if count != tc.wantCount {
				t.Errorf("角色数量 = %d, want %d", count, tc.wantCount)
			}
		})
	}
}
