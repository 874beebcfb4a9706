package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"jobBoard/internal/auth"
	"jobBoard/internal/config"
	"jobBoard/internal/database"
	"jobBoard/internal/repository"
)

func main() {
	var (
		email   = flag.String("email", "", "管理员邮箱（必填）")
		reset   = flag.Bool("reset", false, "账号已存在时重置密码并提升为管理员")
		dbHost  = flag.String("db-host", "", "数据库 Host（默认读 DATABASE_HOST）")
		dbPort  = flag.Int("db-port", 0, "数据库 Port（默认读 DATABASE_PORT）")
		dbName  = flag.String("db-name", "", "数据库名（默认读 POSTGRES_DB）")
		dbUser  = flag.String("db-user", "", "数据库用户（默认读 POSTGRES_USER）")
		dbPass  = flag.String("db-password", "", "数据库密码（默认读 POSTGRES_PASSWORD）")
		sslMode = flag.String("db-sslmode", "", "数据库 SSLMODE（默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	addr := repository.NormalizeEmail(*email)
	if !strings.Contains(addr, "@") {
		log.Fatal("missing or invalid required flag: --email")
	}

	dbCfg, err := databaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}
	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	password, err := auth.RandomPassword(24)
	if err != nil {
		log.Fatalf("generate password: %v", err)
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	var user database.User
	switch err := db.Where("email = ?", addr).First(&user).Error; {
	case err == nil:
		if !*reset {
			log.Fatalf("user %q already exists (use --reset to rotate its password)", addr)
		}
		if err := db.Model(&user).Updates(map[string]any{
			"password_hash": hashed,
			"role":          database.RoleAdmin,
		}).Error; err != nil {
			log.Fatalf("reset user: %v", err)
		}
		fmt.Println("已重置管理员密码：")
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = database.User{Email: addr, PasswordHash: hashed, Role: database.RoleAdmin}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("create user: %v", err)
		}
		fmt.Println("已创建管理员账号：")
	default:
		log.Fatalf("query user: %v", err)
	}

	fmt.Printf("邮箱: %s\n", addr)
	fmt.Printf("密码: %s\n", password)
	fmt.Println("提示：该密码仅显示一次，请登录后通过 /v1/auth/change-password 修改。")
}

// databaseConfig 以命令行参数优先，其次读取与 API 相同的环境变量。
func databaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if port <= 0 {
		port = 5432
	}

	cfg := config.DatabaseConfig{
		Host:     firstNonEmpty(host, os.Getenv("DATABASE_HOST"), "localhost"),
		Port:     port,
		Name:     firstNonEmpty(name, os.Getenv("POSTGRES_DB")),
		User:     firstNonEmpty(user, os.Getenv("POSTGRES_USER")),
		Password: firstNonEmpty(password, os.Getenv("POSTGRES_PASSWORD")),
		SSLMode:  firstNonEmpty(sslmode, os.Getenv("DATABASE_SSLMODE"), "disable"),
	}
	switch {
	case cfg.Name == "":
		return cfg, errors.New("database name is required (POSTGRES_DB)")
	case cfg.User == "":
		return cfg, errors.New("database user is required (POSTGRES_USER)")
	case cfg.Password == "":
		return cfg, errors.New("database password is required (POSTGRES_PASSWORD)")
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
