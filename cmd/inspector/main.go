package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/GoPolymarket/auctionbot/internal/config"
	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/repository"
	"github.com/GoPolymarket/auctionbot/internal/service"
)

// inspector 打印过滤后每个桶的物品数量
func main() {
	file := flag.String("catalog", "", "catalog YAML file; empty reads the database")
	seed := flag.Bool("seed", false, "write the YAML catalog into the database")
	members := flag.Bool("members", false, "print the member ids of every bucket")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *file == "" {
		*file = cfg.Catalog.File
	}

	ctx := context.Background()
	var entries []model.CatalogEntry
	disabled := append([]uint32(nil), cfg.Filter.DisabledItems...)

	if *file != "" {
		f, err := repository.LoadCatalogFile(*file)
		if err != nil {
			log.Fatalf("Failed to load catalog file: %v", err)
		}
		entries = f.Items
		disabled = append(disabled, f.DisabledItems...)
	}

	if *file == "" || *seed {
		db, err := repository.NewDB(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		defer db.Close()
		gdb, err := repository.NewGormDB(db)
		if err != nil {
			log.Fatalf("Failed to open catalog: %v", err)
		}
		repo := repository.NewGormCatalogRepo(gdb)

		if *seed {
			if err := repo.AutoMigrate(); err != nil {
				log.Fatalf("Failed to migrate catalog: %v", err)
			}
			if err := repo.Seed(ctx, entries, disabled); err != nil {
				log.Fatalf("Failed to seed catalog: %v", err)
			}
			fmt.Printf("seeded %d items\n", len(entries))
		} else {
			entries, err = repo.Load(ctx)
			if err != nil {
				log.Fatalf("Failed to load catalog: %v", err)
			}
			ids, err := repo.DisabledItems(ctx)
			if err != nil {
				log.Fatalf("Failed to load disabled items: %v", err)
			}
			disabled = append(disabled, ids...)
		}
	}

	index := service.NewItemIndex()
	if !index.Build(entries, service.NewItemFilter(cfg.Filter, cfg.Bot.UseBuyPriceForSeller, disabled)) {
		fmt.Println("no items admitted")
	}

	fmt.Printf("catalog: %d  admitted: %d\n", len(entries), index.Total())
	for _, k := range model.AllBuckets() {
		fmt.Printf("%-20s %6d\n", k.String(), index.Size(k))
		if *members {
			ids := index.Members(k)
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			fmt.Printf("  %v\n", ids)
		}
	}
}
