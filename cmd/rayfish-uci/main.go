package main

import (
	"flag"
	"log"
	"os"

	"github.com/hailam/rayfish/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	hash       = flag.Int("hash", uci.DefaultHash, "transposition table size in MB")
	depth      = flag.Int("depth", uci.DefaultDepth, "search depth when go has no limits")
)

func main() {
	flag.Parse()

	protocol := uci.New(*hash, *depth, os.Stdout, os.Stderr)

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		if err := protocol.StartProfile(profilePath); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
	}

	if err := protocol.Run(os.Stdin); err != nil {
		log.Fatal(err)
	}
}
