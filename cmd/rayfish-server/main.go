package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hailam/rayfish/internal/server"
	"github.com/hailam/rayfish/internal/storage"
)

var (
	addr    = flag.String("addr", ":3000", "listen address")
	dbDir   = flag.String("db", "", "database directory (default: user data dir, \"memory\" for none)")
	origins = flag.String("origins", "", "comma-separated allowed origins (default: all)")
	hash    = flag.Int("hash", 16, "transposition table size per search in MB")
	quiet   = flag.Bool("quiet", false, "disable request logging")
)

func main() {
	flag.Parse()

	store, err := openStore(*dbDir)
	if err != nil {
		log.Fatal("could not open storage: ", err)
	}
	defer store.Close()

	var allowed []string
	if *origins != "" {
		allowed = strings.Split(*origins, ",")
	}

	app, games, err := server.New(server.Config{
		Store:   store,
		HashMB:  *hash,
		Origins: allowed,
		Logging: !*quiet,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer games.Close()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s", *addr)
	if err := app.Listen(*addr); err != nil {
		log.Fatal(err)
	}
}

func openStore(dir string) (*storage.Storage, error) {
	switch dir {
	case "":
		return storage.NewStorage()
	case "memory":
		return storage.OpenInMemory()
	default:
		return storage.Open(dir)
	}
}
