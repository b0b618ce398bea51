// emeraldctl 运维命令行：迁移、重算、导出、初始化用户
package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
