// Command worldinspect prints the settings and stored chunks of an emberfell
// world folder. It scans the chunks around the last saved observer position
// and summarises what terrain and placements are on disk.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/hallowdale/emberfell/engine/world"
	"github.com/hallowdale/emberfell/engine/world/streamdb"
)

func main() {
	folder := flag.String("folder", "world", "world folder to inspect")
	radius := flag.Int("radius", 8, "chunk radius scanned around the last saved position")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	db, err := streamdb.Config{Log: log}.Open(*folder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "worldinspect: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	var set world.Settings
	db.Settings(&set)
	fmt.Printf("world:     %v\n", set.WorldID)
	fmt.Printf("seed:      %v\n", set.Seed)
	fmt.Printf("tick:      %v\n", set.CurrentTick)
	fmt.Printf("last save: %.1f %.1f %.1f\n", set.LastSave[0], set.LastSave[1], set.LastSave[2])

	centre := world.ChunkPos{
		int32(math.Floor(set.LastSave[0] / world.ChunkSize)),
		int32(math.Floor(set.LastSave[2] / world.ChunkSize)),
	}
	start := time.Now()
	chunks := 0
	kinds := make(map[world.Kind]int)
	for x := centre[0] - int32(*radius); x <= centre[0]+int32(*radius); x++ {
		for z := centre[1] - int32(*radius); z <= centre[1]+int32(*radius); z++ {
			m, err := db.LoadChunk(world.ChunkPos{x, z})
			if err != nil {
				continue
			}
			chunks++
			for obj := range m.Objects() {
				kinds[obj.Kind]++
			}
		}
	}

	side := 2**radius + 1
	fmt.Printf("\nchunks:    %v of %v scanned around %v (%.0fms)\n",
		chunks, side*side, centre, float64(time.Since(start).Microseconds())/1000)
	for k := world.KindRuin; k <= world.KindStash; k++ {
		if n := kinds[k]; n > 0 {
			fmt.Printf("  %-10s %v\n", k.String(), n)
		}
	}
}
