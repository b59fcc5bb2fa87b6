// @title 自适应学习引擎 API
// @version 1.0
// @description 诊断评估、个性化学习路径与进度追踪的后端服务器。

// @contact.name API支持
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api

package main

import (
	"adaptive_learning_backend/internal/app"
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/pkg/configwatcher"
	"adaptive_learning_backend/pkg/logger"
	"flag"
	"log"
)

func main() {
	configPath := flag.String("config", "configs", "配置文件目录")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 学习参数支持热更新，改配置不需要重启
	go configwatcher.WatchConfig(*configPath, application.OnConfigReload)

	application.Run()
}
