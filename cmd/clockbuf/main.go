// Command clockbuf drives a buffer pool over a data file with a random
// read/write workload and prints what the pool did.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jobala/clockbuf/buffer"
	"github.com/jobala/clockbuf/config"
	"github.com/jobala/clockbuf/storage/disk"
	"github.com/jobala/clockbuf/util"
)

func main() {
	opts := config.DefaultOptions()

	configFile := flag.String("config", "", "Path to YAML configuration file")
	poolSize := flag.Int("pool-size", 0, "Number of frames (overrides config)")
	dataFile := flag.String("data-file", "", "Data file path (overrides config)")
	pages := flag.Int("pages", 64, "Pages to allocate for the workload")
	ops := flag.Int("ops", 10000, "Number of page accesses")
	writeRatio := flag.Float64("write-ratio", 0.2, "Fraction of accesses that modify the page")
	seed := flag.Int64("seed", 1, "Workload random seed")
	dump := flag.Bool("dump", false, "Log every frame after the workload")
	flag.Parse()

	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		opts = loaded
	}
	if err := opts.ApplyEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *poolSize > 0 {
		opts.PoolSize = *poolSize
	}
	if *dataFile != "" {
		opts.DataFile = *dataFile
	}
	if err := opts.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := opts.Logger(os.Stderr)
	if err := run(opts, logger, *pages, *ops, *writeRatio, *seed, *dump); err != nil {
		logger.Error("workload failed", "err", err)
		os.Exit(1)
	}
}

func run(opts config.Options, logger *slog.Logger, pages, ops int, writeRatio float64, seed int64, dump bool) (err error) {
	file, err := disk.Open(opts.DataFile)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	bpm, err := buffer.NewBufferpoolManager(opts.PoolSize, nil, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, bpm.Close())
	}()

	logger.Info("starting workload",
		"file", file.Path(),
		"frames", opts.PoolSize,
		"pool_memory", humanize.IBytes(uint64(opts.PoolSize*opts.PageSize)),
		"pages", pages,
		"ops", ops,
	)

	pageNos, err := allocatePages(bpm, file, pages)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	for i := range ops {
		pageNo := pageNos[rng.Intn(len(pageNos))]
		if rng.Float64() < writeRatio {
			guard, err := bpm.WritePage(file, pageNo)
			if err != nil {
				return err
			}
			copy(guard.GetDataMut(), fmt.Sprintf("page %d write %d", pageNo, i))
			guard.Drop()
			continue
		}

		guard, err := bpm.ReadPage(file, pageNo)
		if err != nil {
			return err
		}
		guard.Drop()
	}

	if dump {
		bpm.Dump()
	}
	if err := bpm.FlushFile(file); err != nil && !errors.Is(err, util.ErrPagePinned) {
		return err
	}

	report(bpm.Stats(), opts.PageSize)
	return nil
}

func allocatePages(bpm *buffer.BufferpoolManager, file *disk.DiskFile, n int) ([]int64, error) {
	pageNos := make([]int64, 0, n)
	for range n {
		guard, err := bpm.NewPage(file)
		if err != nil {
			return nil, err
		}
		copy(guard.GetDataMut(), fmt.Sprintf("page %d", guard.PageNo()))
		pageNos = append(pageNos, guard.PageNo())
		guard.Drop()
	}
	return pageNos, nil
}

func report(s buffer.Stats, pageSize int) {
	total := s.Hits + s.Misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(s.Hits) / float64(total) * 100
	}

	fmt.Printf("frames      %s (%s)\n", humanize.Comma(int64(s.Capacity)), humanize.IBytes(uint64(s.Capacity*pageSize)))
	fmt.Printf("accesses    %s\n", humanize.Comma(int64(total)))
	fmt.Printf("hit rate    %.1f%%\n", hitRate)
	fmt.Printf("evictions   %s\n", humanize.Comma(int64(s.Evictions)))
	fmt.Printf("write-backs %s (%s)\n", humanize.Comma(int64(s.WriteBacks)), humanize.IBytes(s.WriteBacks*uint64(pageSize)))
	fmt.Printf("resident    %d valid, %d dirty, %d pinned\n", s.Valid, s.Dirty, s.Pinned)
}
