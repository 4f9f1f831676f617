package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/linemk/food-delivery/internal/config"
	security "github.com/linemk/food-delivery/internal/jwt-new"
)

// Выдаёт токен для указанного пользователя, например для доступа к админке из скриптов
func main() {
	var userID string
	flag.StringVar(&userID, "user", "", "user id (uuid) to issue the token for")

	cfg := config.MustLoad()
	if userID == "" {
		log.Fatal("-user is required")
	}
	if _, err := uuid.Parse(userID); err != nil {
		log.Fatalf("-user must be a uuid: %v", err)
	}

	token, err := security.NewToken(userID, cfg.JWT.Secret, time.Duration(cfg.JWT.TokenTTL)*time.Minute)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}
	fmt.Println(token)
}
