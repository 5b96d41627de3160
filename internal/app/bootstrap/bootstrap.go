// internal/app/bootstrap/bootstrap.go
package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/domain/repository"
)

// Bootstrapper 负责首次启动时的数据初始化
type Bootstrapper struct {
	characterRepo repository.CharacterRepository
	seedFile      string
}

func NewBootstrapper(characterRepo repository.CharacterRepository, seedFile string) *Bootstrapper {
	return &Bootstrapper{characterRepo: characterRepo, seedFile: seedFile}
}

// Initialize 执行所有引导步骤
func (b *Bootstrapper) Initialize(ctx context.Context) error {
	log.Println("--- 开始执行数据初始化引导程序 ---")
	if err := b.seedCharacters(ctx); err != nil {
		return err
	}
	log.Println("--- 数据初始化引导程序执行完成 ---")
	return nil
}

// seedCharacters 角色目录为空时从 JSON 文件导入；目录已有数据时不做任何修改
func (b *Bootstrapper) seedCharacters(ctx context.Context) error {
	count, err := b.characterRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("查询角色数量失败: %w", err)
	}
	if count > 0 {
		log.Printf("角色目录已有 %d 条记录，跳过种子导入。", count)
		return nil
	}
	if b.seedFile == "" {
		log.Println("⚠️ 未配置角色种子文件，角色目录保持为空。")
		return nil
	}

	characters, err := loadCharacters(b.seedFile)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️ 角色种子文件 %s 不存在，角色目录保持为空。", b.seedFile)
		return nil
	}
	if err != nil {
		return err
	}
	if len(characters) == 0 {
		return nil
	}

	if err := b.characterRepo.InsertMany(ctx, characters); err != nil {
		return fmt.Errorf("导入角色种子数据失败: %w", err)
	}
	log.Printf("✅ 已从 %s 导入 %d 个角色", b.seedFile, len(characters))
	return nil
}

func loadCharacters(path string) ([]*model.Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var characters []*model.Character
	if err := json.Unmarshal(data, &characters); err != nil {
		return nil, fmt.Errorf("解析角色种子文件 %s 失败: %w", path, err)
	}

	valid := characters[:0]
	for _, c := range characters {
		if c == nil || strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.Name) == "" {
			log.Printf("⚠️ 跳过缺少 id 或 name 的角色记录: %+v", c)
			continue
		}
		valid = append(valid, c)
	}
	return valid, nil
}
