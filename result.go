/*
 * result.go, part of godock.
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

package dock

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/rmera/godock/qtn"
)

//Result is a docked pose: its free energy and the world coordinates of
//every atom, heavy atoms and hydrogens in their input order. A Result
//returned by a search also carries the incumbent energy after each
//generation, which Trace in the dockplot package can draw.
type Result struct {
	E          float64
	HeavyAtoms []qtn.Vec3
	Hydrogens  []qtn.Vec3
	Trace      []float64
}

//composeResult replays the forward kinematics of the conformation x
//over all atoms, hydrogens included, and packs the world coordinates
//into a Result.
func (l *Ligand) composeResult(e float64, x []float64) *Result {
	if len(x) != l.NumConformation() {
		panic(ErrBadConformation)
	}
	nf := len(l.Frames)
	o := make([]qtn.Vec3, nf)
	q := make([]qtn.Qtn, nf)
	r := &Result{
		E:          e,
		HeavyAtoms: make([]qtn.Vec3, len(l.HeavyAtoms)),
		Hydrogens:  make([]qtn.Vec3, len(l.Hydrogens)),
	}
	o[0] = qtn.Vec3{x[0], x[1], x[2]}
	q[0] = qtn.Qtn{x[3], x[4], x[5], x[6]}
	for k, t := 0, 0; k < nf; k++ {
		f := l.Frames[k]
		m := q[k].Mat3()
		for i := f.HABegin; i < f.HAEnd; i++ {
			r.HeavyAtoms[i] = o[k].Add(m.MulVec(l.HeavyAtoms[i].Coord))
		}
		for i := f.HYBegin; i < f.HYEnd; i++ {
			r.Hydrogens[i] = o[k].Add(m.MulVec(l.Hydrogens[i].Coord))
		}
		for _, bi := range f.Branches {
			b := l.Frames[bi]
			o[bi] = o[k].Add(m.MulVec(b.ParentYToY))
			if b.Active {
				q[bi] = qtn.AxisAngle(m.MulVec(b.XToY), x[7+t]).Mul(q[k]).Unit()
				t++
			} else {
				//an inactive frame turns with its parent; its hydrogens
				//still need the orientation.
				q[bi] = q[k]
			}
		}
	}
	return r
}

//RMSD returns the root-mean-square deviation between the heavy atoms
//of two poses of the same ligand, without superposition. It panics if
//the poses have different numbers of heavy atoms.
func (r *Result) RMSD(s *Result) float64 {
	if len(r.HeavyAtoms) != len(s.HeavyAtoms) {
		panic(ErrBadConformation)
	}
	sum := 0.0
	for i, c := range r.HeavyAtoms {
		sum += qtn.DistSqr(c, s.HeavyAtoms[i])
	}
	return math.Sqrt(sum / float64(len(r.HeavyAtoms)))
}

//SelectRepresentatives sorts the poses by energy and keeps, up to max,
//those whose heavy-atom RMSD to every previously kept pose exceeds
//minRMSD. The returned slice starts with the best-scored pose.
func SelectRepresentatives(results []*Result, minRMSD float64, max int) []*Result {
	sorted := make([]*Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].E < sorted[j].E })
	kept := make([]*Result, 0, max)
	for _, r := range sorted {
		if len(kept) >= max {
			break
		}
		distinct := true
		for _, k := range kept {
			if r.RMSD(k) <= minRMSD {
				distinct = false
				break
			}
		}
		if distinct {
			kept = append(kept, r)
		}
	}
	return kept
}

//WriteModels writes the given poses as a multi-MODEL PDBQT file. The
//input lines of the ligand are echoed verbatim except for the
//coordinate columns of ATOM/HETATM records, which are rewritten from
//each pose, and the partial charge columns, which are zeroed. Atom
//lines are matched to coordinates in input order, with hydrogens told
//apart by their type in column 78.
func (l *Ligand) WriteModels(w io.Writer, results []*Result) error {
	bw := bufio.NewWriter(w)
	for n, r := range results {
		fmt.Fprintf(bw, "MODEL     %4d\n", n+1)
		fmt.Fprintf(bw, "REMARK            TOTAL FREE ENERGY PREDICTED BY GODOCK:%8.3f KCAL/MOL\n", r.E)
		fmt.Fprintf(bw, "REMARK       NORMALIZED FREE ENERGY PREDICTED BY GODOCK:%8.3f KCAL/MOL\n", r.E*l.FlexibilityPenaltyFactor())
		heavy, hydro := 0, 0
		for _, line := range l.Lines {
			//only ATOM/HETATM records reach the parsed length.
			if len(line) >= 79 {
				var coord qtn.Vec3
				if line[77] == 'H' {
					coord = r.Hydrogens[hydro]
					hydro++
				} else {
					coord = r.HeavyAtoms[heavy]
					heavy++
				}
				fmt.Fprintf(bw, "%s%8.3f%8.3f%8.3f%s%6d%s\n",
					line[:30], coord[0], coord[1], coord[2], line[54:70], 0, line[76:])
			} else {
				fmt.Fprintln(bw, line)
			}
		}
		fmt.Fprintln(bw, "ENDMDL")
	}
	if err := bw.Flush(); err != nil {
		return Error{"can't write models: " + err.Error(), "", []string{"WriteModels"}, true}
	}
	return nil
}
