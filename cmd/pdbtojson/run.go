package main

import (
	"fmt"
	"os"

	"github.com/jtang613/pdbtojson/internal/config"
	"github.com/jtang613/pdbtojson/internal/logging"
	"github.com/jtang613/pdbtojson/pkg/dump"
	"github.com/jtang613/pdbtojson/pkg/pdb"
)

// run dumps the PDB named by cfg to cfg.Output.
func run(cfg config.Config) error {
	logging.Initialize(cfg.LogLevel)

	session, err := pdb.Open(cfg.PDBPath)
	if err != nil {
		return err
	}
	defer session.Close()

	describe(session)

	global, err := session.GlobalScope()
	if err != nil {
		return fmt.Errorf("failed to get global scope: %w", err)
	}

	opts := []dump.Option{dump.WithFilter(dump.NewFilter(cfg.SourcePrefix, cfg.Excludes))}
	var progress *logging.Progress
	if !cfg.NoProgress {
		// The bar is started on the first callback, once the total is known.
		started := false
		opts = append(opts, dump.WithProgress(func(processed, total int) {
			if !started {
				progress = logging.StartProgress("Processing symbols", total)
				started = true
			}
			progress.Update(processed, total)
		}))
	}

	d := dump.New(opts...)
	doc, err := d.Dump(global)
	progress.Stop()
	if err != nil {
		return err
	}

	if err := writeDocument(cfg.Output, doc); err != nil {
		return err
	}

	logging.Debugf("visited %d symbols: %d skipped, %d filtered, %d type names resolved",
		doc.Stats.Visited, doc.Stats.Skipped, doc.Stats.Filtered, d.Resolver().Len())
	logging.Success("Done", "PDB information has been dumped to "+cfg.Output)
	return nil
}

// describe logs the file summary and any load warnings.
func describe(session *pdb.Session) {
	info := session.Info()
	logging.Info("PDB", fmt.Sprintf("%s, %d modules, %d types", info.Machine, info.Modules, info.Types))
	logging.Debugf("GUID %s, age %d, machine %s, %d streams, %d modules, %d types",
		info.GUID, info.Age, info.Machine, info.Streams, info.Modules, info.Types)
	for _, sec := range session.Sections() {
		logging.Debugf("section %d %-8s rva 0x%08x size 0x%x", sec.Index, sec.Name, sec.Address, sec.Length)
	}
	for _, w := range session.Warnings() {
		logging.Warn("Warning", w.Error())
	}
}

func writeDocument(path string, doc *dump.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := dump.WriteJSON(f, doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// report logs err and hands it back so cobra exits non-zero.
func report(err error) error {
	if err != nil {
		logging.Error("Error", err)
	}
	return err
}
