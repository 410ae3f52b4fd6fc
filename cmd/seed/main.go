package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/atelier-ops/shift-scheduler/backend/internal/config"
	"github.com/atelier-ops/shift-scheduler/backend/internal/repository"
	"github.com/atelier-ops/shift-scheduler/backend/internal/seed"
	"github.com/atelier-ops/shift-scheduler/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var month string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入工种, 2: 插入随机员工, 3: 插入人数需求, 4: 插入随机出勤意向)")
	flag.IntVar(&n, "n", 5, "要插入的员工数量")
	flag.StringVar(&month, "month", "", "目标月份，形如 2026-03")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	parseMonth := func() (time.Time, bool) {
		m, err := utils.ParseMonth(month)
		if err != nil {
			slog.Error("月份无效", "error", err)
			return time.Time{}, false
		}
		return m, true
	}

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if _, err := seed.EnsureJobTypes(repo); err != nil {
			slog.Error("无法插入工种", "error", err)
		} else {
			slog.Info("插入工种成功")
		}
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的员工数量")
		} else if err := seed.SeedEmployees(repo, n, cfg.Email.UserDomain); err != nil {
			slog.Error("无法插入员工", "error", err)
		}
	case 3:
		if m, ok := parseMonth(); ok {
			if err := seed.SeedRequirements(repo, m); err != nil {
				slog.Error("无法插入人数需求", "error", err)
			}
		}
	case 4:
		if m, ok := parseMonth(); ok {
			if err := seed.SeedShiftRequests(repo, m); err != nil {
				slog.Error("无法插入出勤意向", "error", err)
			}
		}
	default:
		slog.Error("未知操作", "op", op)
	}
}
