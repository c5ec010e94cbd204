/*
 * receptor.go, part of godock.
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
	"io"
	"math"
	"strings"

	"github.com/rmera/godock/qtn"
)

//Receptor is the rigid macromolecule, reduced to its typed heavy atoms
//and, after population, to one energy grid map per XScore type. The box
//is given by its center and full side lengths; probe points sit on a
//regular lattice of the given granularity starting at the lower corner.
type Receptor struct {
	Center             qtn.Vec3
	Size               qtn.Vec3
	Granularity        float64
	GranularityInverse float64
	NumProbes          [3]int
	Atoms              []*Atom
	//Maps[xs] is the grid map of the XScore type xs, flat-indexed as
	//ix + NumProbes[0]*(iy + NumProbes[1]*iz). Only the types passed to
	//AllocateMaps are non-nil.
	Maps    [NumXS][]float64
	corner0 qtn.Vec3 //lower corner of the box
	corner1 qtn.Vec3 //upper corner of the box
}

//ReadReceptor parses a rigid receptor from PDBQT text. Only ATOM and
//HETATM records are considered. Hydrogens are used to mark their bonded
//hetero atoms as donors and are then discarded; carbons bonded to a
//hetero atom within the same residue are demoted to polar. The filename
//is only used to decorate errors.
func ReadReceptor(rd io.Reader, filename string, center, size qtn.Vec3, granularity float64) (*Receptor, error) {
	r := &Receptor{
		Center:             center,
		Size:               size,
		Granularity:        granularity,
		GranularityInverse: 1 / granularity,
	}
	for i := 0; i < 3; i++ {
		r.corner0[i] = center[i] - 0.5*size[i]
		r.NumProbes[i] = int(size[i]*r.GranularityInverse) + 1
		//corner1 snaps to the last probe of the lattice, so any point
		//Within the box has a whole interpolation cell above its index.
		r.corner1[i] = r.corner0[i] + granularity*float64(r.NumProbes[i]-1)
	}
	residueStart := 0
	residue := ""
	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "ATOM") && !strings.HasPrefix(line, "HETATM") {
			continue
		}
		a, err := parseAtom(line)
		if err != nil {
			e := err.(Error)
			e.filename = filename
			return nil, errDecorate(e, "ReadReceptor")
		}
		if !a.Supported() {
			continue
		}
		//residues are told apart by chain identifier and residue
		//sequence number, columns 21 to 25.
		if id := line[21:26]; id != residue {
			residue = id
			residueStart = len(r.Atoms)
		}
		if a.IsHydrogen() {
			if a.IsPolarHydrogen() {
				for i := len(r.Atoms) - 1; i >= residueStart; i-- {
					b := r.Atoms[i]
					if b.IsHetero() && b.HasCovalentBond(a) {
						b.Donorize()
						break
					}
				}
			}
			continue
		}
		if a.IsHetero() {
			for i := len(r.Atoms) - 1; i >= residueStart; i-- {
				b := r.Atoms[i]
				if !b.IsHetero() && b.HasCovalentBond(a) {
					b.Dehydrophobicize()
				}
			}
		} else {
			for i := len(r.Atoms) - 1; i >= residueStart; i-- {
				b := r.Atoms[i]
				if b.IsHetero() && b.HasCovalentBond(a) {
					a.Dehydrophobicize()
					break
				}
			}
		}
		r.Atoms = append(r.Atoms, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, Error{"can't read receptor: " + err.Error(), filename, []string{"ReadReceptor"}, true}
	}
	return r, nil
}

//Within tells whether the point p lies inside the receptor box.
func (r *Receptor) Within(p qtn.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < r.corner0[i] || p[i] >= r.corner1[i] {
			return false
		}
	}
	return true
}

//CoordinateToIndex maps a point inside the box to the probe lattice
//index of its lower grid corner.
func (r *Receptor) CoordinateToIndex(p qtn.Vec3) [3]int {
	var idx [3]int
	for i := 0; i < 3; i++ {
		idx[i] = int((p[i] - r.corner0[i]) * r.GranularityInverse)
	}
	return idx
}

//MapIndex flattens a probe lattice index into an offset into a grid map.
func (r *Receptor) MapIndex(ix, iy, iz int) int {
	return ix + r.NumProbes[0]*(iy+r.NumProbes[1]*iz)
}

//AllocateMaps allocates zeroed grid maps for the given XScore types.
//Call it once before handing z slices to Populate.
func (r *Receptor) AllocateMaps(xsSet []int) {
	n := r.NumProbes[0] * r.NumProbes[1] * r.NumProbes[2]
	for _, xs := range xsSet {
		if r.Maps[xs] == nil {
			r.Maps[xs] = make([]float64, n)
		}
	}
}

//Populate accumulates, into the z-th slice of the grid maps of the
//XScore types in xsSet, the interaction energy between each probe point
//and every receptor atom within the cutoff. Slices are disjoint, so
//different z values can be populated concurrently. AllocateMaps must
//have been called first.
func (r *Receptor) Populate(xsSet []int, z int, sf *ScoringFunction) {
	zCoord := r.corner0[2] + r.Granularity*float64(z)
	zOffset := r.NumProbes[0] * r.NumProbes[1] * z
	for _, a := range r.Atoms {
		dz := zCoord - a.Coord[2]
		dydxSqrUB := CutoffSqr - dz*dz
		if dydxSqrUB <= 0 {
			continue
		}
		dydxUB := math.Sqrt(dydxSqrUB)
		yBegin, yEnd := r.probeRange(1, a.Coord[1], dydxUB)
		for y := yBegin; y < yEnd; y++ {
			dy := r.corner0[1] + r.Granularity*float64(y) - a.Coord[1]
			dxSqrUB := dydxSqrUB - dy*dy
			if dxSqrUB <= 0 {
				continue
			}
			dxUB := math.Sqrt(dxSqrUB)
			xBegin, xEnd := r.probeRange(0, a.Coord[0], dxUB)
			dzdySqr := dz*dz + dy*dy
			zyOffset := zOffset + r.NumProbes[0]*y
			for x := xBegin; x < xEnd; x++ {
				dx := r.corner0[0] + r.Granularity*float64(x) - a.Coord[0]
				rSqr := dzdySqr + dx*dx
				//the flooring in probeRange can let a probe just past
				//the cutoff through.
				if rSqr >= CutoffSqr {
					continue
				}
				o := zyOffset + x
				sample := int(float64(sf.NS) * rSqr)
				for _, xs := range xsSet {
					r.Maps[xs][o] += sf.E[sf.NR*PairIndex(a.XS, xs)+sample]
				}
			}
		}
	}
}

//probeRange returns the half-open range of probe indices along the
//dim axis whose coordinates lie within radius of center, clipped to the
//box.
func (r *Receptor) probeRange(dim int, center, radius float64) (int, int) {
	begin := 0
	if lb := center - radius; lb > r.corner0[dim] {
		begin = int((lb - r.corner0[dim]) * r.GranularityInverse)
	}
	end := r.NumProbes[dim]
	if ub := center + radius; ub < r.corner1[dim] {
		end = int((ub-r.corner0[dim])*r.GranularityInverse) + 1
	}
	return begin, end
}
