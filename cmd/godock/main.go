/*
 * main.go, part of godock.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 * goDock is currently developed at the Universidad de Santiago de Chile
 * (USACH)
 *
 */

//The godock command docks one or more PDBQT ligands into a rigid PDBQT
//receptor and writes the representative poses of each ligand as a
//multi-MODEL PDBQT file. Every option can also be given through a YAML
//file (--config) or a GODOCK_* environment variable.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	dock "github.com/rmera/godock"
	"github.com/rmera/godock/dockplot"
	"github.com/rmera/godock/qtn"
)

type options struct {
	Receptor    string
	Out         string
	Center      qtn.Vec3
	Size        qtn.Vec3
	Granularity float64
	Seed        uint64
	Generations int
	Tasks       int
	Poses       int
	MinRMSD     float64
	CPUs        int
	Plot        bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "godock [flags] ligand.pdbqt...",
		Short: "docks PDBQT ligands into a rigid PDBQT receptor",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := loadOptions(cmd, configFile)
			if err != nil {
				return err
			}
			return run(opt, args)
		},
		SilenceUsage: true,
	}
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "YAML configuration file")
	f.String("receptor", "", "receptor PDBQT file (required)")
	f.String("out", ".", "directory for the output PDBQT files")
	f.Float64("center-x", 0, "x coordinate of the search box center")
	f.Float64("center-y", 0, "y coordinate of the search box center")
	f.Float64("center-z", 0, "z coordinate of the search box center")
	f.Float64("size-x", 22.5, "x dimension of the search box")
	f.Float64("size-y", 22.5, "y dimension of the search box")
	f.Float64("size-z", 22.5, "z dimension of the search box")
	f.Float64("granularity", 0.15625, "spacing of the receptor grid maps")
	f.Uint64("seed", 0, "random seed, 0 draws one from the clock")
	f.Int("generations", 100, "Monte-Carlo generations per task")
	f.Int("tasks", 32, "independent searches per ligand")
	f.Int("poses", 9, "representative poses to write per ligand")
	f.Float64("min-rmsd", 2.0, "minimum heavy-atom RMSD between written poses")
	f.Int("cpus", runtime.NumCPU(), "goroutines for map population and search")
	f.Bool("plot", false, "also write energy and trace plots per ligand")
	return cmd
}

//loadOptions merges flags, the optional YAML file and GODOCK_*
//environment variables, with explicit flags winning.
func loadOptions(cmd *cobra.Command, configFile string) (*options, error) {
	v := viper.New()
	v.SetEnvPrefix("GODOCK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("can't read %s: %w", configFile, err)
		}
	}
	opt := &options{
		Receptor:    v.GetString("receptor"),
		Out:         v.GetString("out"),
		Center:      qtn.Vec3{v.GetFloat64("center-x"), v.GetFloat64("center-y"), v.GetFloat64("center-z")},
		Size:        qtn.Vec3{v.GetFloat64("size-x"), v.GetFloat64("size-y"), v.GetFloat64("size-z")},
		Granularity: v.GetFloat64("granularity"),
		Seed:        v.GetUint64("seed"),
		Generations: v.GetInt("generations"),
		Tasks:       v.GetInt("tasks"),
		Poses:       v.GetInt("poses"),
		MinRMSD:     v.GetFloat64("min-rmsd"),
		CPUs:        v.GetInt("cpus"),
		Plot:        v.GetBool("plot"),
	}
	if opt.Receptor == "" {
		return nil, fmt.Errorf("a receptor file is required")
	}
	if opt.Size[0] <= 0 || opt.Size[1] <= 0 || opt.Size[2] <= 0 {
		return nil, fmt.Errorf("the search box dimensions must be positive")
	}
	if opt.Granularity <= 0 {
		return nil, fmt.Errorf("the granularity must be positive")
	}
	if opt.Seed == 0 {
		opt.Seed = uint64(time.Now().UnixNano())
		log.Printf("Using seed %d", opt.Seed)
	}
	return opt, nil
}

func run(opt *options, ligands []string) error {
	rf, err := dock.OpenInput(opt.Receptor)
	if err != nil {
		return err
	}
	rec, err := dock.ReadReceptor(rf, opt.Receptor, opt.Center, opt.Size, opt.Granularity)
	rf.Close()
	if err != nil {
		return err
	}
	log.Printf("Read receptor %s: %d atoms, %dx%dx%d probes",
		opt.Receptor, len(rec.Atoms), rec.NumProbes[0], rec.NumProbes[1], rec.NumProbes[2])

	sf := dock.NewScoringFunction()
	var populated [dock.NumXS]bool

	//a bad ligand should not sink the rest of a batch.
	failed := 0
	for _, name := range ligands {
		if err := dockOne(opt, rec, sf, &populated, name); err != nil {
			log.Printf("Skipping %s: %v", name, err)
			failed++
		}
	}
	if failed == len(ligands) {
		return fmt.Errorf("no ligand could be docked")
	}
	return nil
}

func dockOne(opt *options, rec *dock.Receptor, sf *dock.ScoringFunction, populated *[dock.NumXS]bool, name string) error {
	lf, err := dock.OpenInput(name)
	if err != nil {
		return err
	}
	lig, err := dock.ReadLigand(lf, name)
	lf.Close()
	if err != nil {
		return err
	}
	log.Printf("Read ligand %s: %d heavy atoms, %d active torsions",
		name, len(lig.HeavyAtoms), lig.NumActiveTorsions)

	//grid maps are populated lazily: only the atom types this ligand
	//brings in and no earlier ligand did.
	var newXS []int
	for _, a := range lig.HeavyAtoms {
		if !populated[a.XS] {
			populated[a.XS] = true
			newXS = append(newXS, a.XS)
		}
	}
	if len(newXS) > 0 {
		rec.AllocateMaps(newXS)
		populateMaps(rec, sf, newXS, opt.CPUs)
	}

	results := make([]*dock.Result, opt.Tasks)
	var wg sync.WaitGroup
	sem := make(chan struct{}, opt.CPUs)
	for i := 0; i < opt.Tasks; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			results[i] = lig.BFGS(sf, rec, opt.Seed+uint64(i), opt.Generations)
			<-sem
		}(i)
	}
	wg.Wait()

	kept := dock.SelectRepresentatives(results, opt.MinRMSD, opt.Poses)
	log.Printf("Best free energy for %s: %.3f kcal/mol (%d poses kept)", name, kept[0].E, len(kept))

	outName := filepath.Join(opt.Out, filepath.Base(name))
	of, err := dock.CreateOutput(outName)
	if err != nil {
		return err
	}
	if err := lig.WriteModels(of, kept); err != nil {
		of.Close()
		return err
	}
	if err := of.Close(); err != nil {
		return err
	}

	if opt.Plot {
		base := strings.TrimSuffix(outName, filepath.Ext(outName))
		if err := dockplot.Energies(kept, filepath.Base(name), base+"_energies"); err != nil {
			return err
		}
		traces := make([][]float64, len(results))
		for i, r := range results {
			traces[i] = r.Trace
		}
		if err := dockplot.Trace(traces, filepath.Base(name), base+"_trace"); err != nil {
			return err
		}
	}
	return nil
}

//populateMaps fills the grid maps for the given new atom types, one
//goroutine per z slice up to cpus at a time.
func populateMaps(rec *dock.Receptor, sf *dock.ScoringFunction, xsSet []int, cpus int) {
	start := time.Now()
	var wg sync.WaitGroup
	sem := make(chan struct{}, cpus)
	for z := 0; z < rec.NumProbes[2]; z++ {
		wg.Add(1)
		go func(z int) {
			defer wg.Done()
			sem <- struct{}{}
			rec.Populate(xsSet, z, sf)
			<-sem
		}(z)
	}
	wg.Wait()
	log.Printf("Populated %d grid maps in %v", len(xsSet), time.Since(start).Round(time.Millisecond))
}
