package main

import (
	"log"

	"DriveDNA/config"
	"DriveDNA/jwt"
	"DriveDNA/mailer"
	"DriveDNA/routers"
)

func main() {
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		panic("無法讀取設定檔")
	}

	db, err := config.SetupMySQLConnection(cfg)
	if err != nil {
		panic("無法連接到資料庫")
	}
	defer func() {
		dbInstance, _ := db.DB()
		_ = dbInstance.Close()
	}()

	rdb := config.SetupRedisConnection(cfg)
	defer rdb.Close()

	keys, err := jwt.LoadKeys(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath)
	if err != nil {
		panic("無法讀取JWT金鑰")
	}

	sender := mailer.NewSMTPSender(cfg.SMTP)

	router := routers.SetupRouters(db, rdb, sender, keys, cfg)
	if err := router.Run(cfg.Server.Addr); err != nil {
		log.Fatal(err)
	}
}
