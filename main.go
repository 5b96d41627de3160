package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paimon-guide/guide-app/cmd/server"
	"github.com/paimon-guide/guide-app/internal/pkg/auth"
	"github.com/paimon-guide/guide-app/pkg/config"
)

// @title           Paimon Guide API
// @version         1.0
// @description     攻略站访问统计与公告接口
// @BasePath        /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description 在请求头中添加 Bearer Token，格式为: Bearer {token}
func main() {
	var (
		issueAdminToken string
		birthdayCheck   bool
		dryRun          bool
	)
	flag.StringVar(&issueAdminToken, "issue-admin-token", "", "为指定用户签发 24 小时有效的管理员令牌并退出")
	flag.BoolVar(&birthdayCheck, "birthday-check", false, "执行一次生日公告检查并退出")
	flag.BoolVar(&dryRun, "dry-run", false, "与 -birthday-check 一起使用，只预演不写入")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	if issueAdminToken != "" {
		token, err := auth.GenerateToken(issueAdminToken, auth.RoleAdmin,
			cfg.GetString(config.KeyJWTIssuer), 24*time.Hour, []byte(cfg.GetString(config.KeyJWTSecret)))
		if err != nil {
			log.Fatalf("签发管理员令牌失败: %v", err)
		}
		fmt.Println(token)
		return
	}

	app, cleanup, err := server.NewApp(cfg)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		log.Fatalf("应用初始化失败: %v", err)
	}
	defer cleanup()
	defer app.Stop()

	if birthdayCheck {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		result, err := app.BirthdayService().Check(ctx, dryRun)
		if err != nil {
			log.Printf("生日检查失败: %v", err)
			return
		}
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		return
	}

	app.PrintBanner()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Printf("应用运行失败: %v", err)
	}
}
