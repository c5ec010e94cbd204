/*
 * ligand.go, part of godock.
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
	"strconv"
	"strings"

	"github.com/rmera/godock/qtn"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

//Frame is a rigid fragment of a ligand. Except for the ROOT frame, a
//frame hangs from its parent by the rotatable bond between the parent's
//rotorX atom and this frame's rotorY atom. Atom indices in
//[HABegin,HAEnd) and [HYBegin,HYEnd) are half-open ranges into the
//ligand's HeavyAtoms and Hydrogens slices.
type Frame struct {
	Parent    int //index of the parent frame; 0 for ROOT itself
	RotorXsrn int //serial number of the parent-side rotor atom
	RotorYsrn int //serial number of this frame's rotor atom
	RotorXidx int //heavy-atom index of rotorX
	RotorYidx int //heavy-atom index of rotorY
	HABegin   int
	HAEnd     int
	HYBegin   int
	HYEnd     int
	//Active is false for a frame whose torsion cannot change the energy,
	//i.e. one holding only its rotorY plus hydrogens, like -OH or -NH2.
	Active   bool
	Branches []int //indices of the child frames
	//ParentYToY points from the parent's rotorY to this frame's rotorY,
	//and XToY is the unit rotation axis from rotorX to rotorY. Both are
	//fixed in the parent frame's local coordinates.
	ParentYToY qtn.Vec3
	XToY       qtn.Vec3
}

//InteractingPair is a pair of heavy atoms of different frames whose
//interaction energy depends on the conformation. Offset locates the
//block of the pair's XScore types within the scoring tables.
type InteractingPair struct {
	I0, I1 int
	Offset int
}

//Ligand is a flexible molecule parsed from PDBQT text, cut at its
//rotatable bonds into a tree of rigid frames. It is immutable after
//parsing and can be shared freely among goroutines; all conformational
//state lives in the x vectors handed to its methods.
type Ligand struct {
	//Lines keeps the input verbatim, to be echoed back by WriteModels
	//with only the coordinate columns rewritten.
	Lines             []string
	Frames            []*Frame
	HeavyAtoms        []*Atom
	Hydrogens         []*Atom
	Pairs             []InteractingPair
	NumActiveTorsions int
}

//NumTorsions returns the number of rotatable bonds, active or not.
func (l *Ligand) NumTorsions() int { return len(l.Frames) - 1 }

//NumVariables returns the dimension of the gradient: position,
//orientation and one entry per active torsion.
func (l *Ligand) NumVariables() int { return 6 + l.NumActiveTorsions }

//NumConformation returns the length of a conformation vector x: the
//orientation takes four numbers as a quaternion, against three in the
//gradient.
func (l *Ligand) NumConformation() int { return 7 + l.NumActiveTorsions }

//FlexibilityPenaltyFactor returns the Vina-style normalization factor
//that discounts the free energy of a ligand by its torsional freedom.
func (l *Ligand) FlexibilityPenaltyFactor() float64 {
	inactive := l.NumTorsions() - l.NumActiveTorsions
	return 1 / (1 + 0.05846*(float64(l.NumActiveTorsions)+0.5*float64(inactive)))
}

//ReadLigand parses a flexible ligand from PDBQT text. ATOM/HETATM
//records become atoms, BRANCH/ENDBRANCH pairs delimit the rigid frames,
//and everything else that belongs to the format (ROOT, ENDROOT,
//TORSDOF) is kept only for output. The filename decorates errors.
func ReadLigand(rd io.Reader, filename string) (*Ligand, error) {
	l := &Ligand{
		//the parent and rotorX of ROOT are never used.
		Frames: []*Frame{{RotorYsrn: 1, RotorYidx: -1}},
	}
	bonds := simple.NewUndirectedGraph()
	current := 0
	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM"):
			l.Lines = append(l.Lines, line)
			f := l.Frames[current]
			a, err := parseAtom(line)
			if err != nil {
				e := err.(Error)
				e.filename = filename
				return nil, errDecorate(e, "ReadLigand")
			}
			if !a.Supported() {
				continue
			}
			if a.IsHydrogen() {
				if a.IsPolarHydrogen() {
					for i := len(l.HeavyAtoms) - 1; i >= f.HABegin; i-- {
						b := l.HeavyAtoms[i]
						if b.IsHetero() && a.HasCovalentBond(b) {
							b.Donorize()
							break
						}
					}
				}
				l.Hydrogens = append(l.Hydrogens, a)
				continue
			}
			idx := len(l.HeavyAtoms)
			bonds.AddNode(simple.Node(idx))
			for i := idx - 1; i >= f.HABegin; i-- {
				b := l.HeavyAtoms[i]
				if !a.HasCovalentBond(b) {
					continue
				}
				bonds.SetEdge(simple.Edge{F: simple.Node(i), T: simple.Node(idx)})
				if a.IsHetero() && !b.IsHetero() {
					b.Dehydrophobicize()
				} else if !a.IsHetero() && b.IsHetero() {
					a.Dehydrophobicize()
				}
			}
			if current > 0 && a.Serial == f.RotorYsrn {
				f.RotorYidx = idx
			} else if current == 0 && f.RotorYidx < 0 {
				//the rotorY of ROOT is its first heavy atom.
				f.RotorYidx = idx
			}
			l.HeavyAtoms = append(l.HeavyAtoms, a)
		case strings.HasPrefix(line, "BRANCH"):
			l.Lines = append(l.Lines, line)
			if len(line) < 14 {
				return nil, Error{"BRANCH line too short", filename, []string{"ReadLigand"}, true}
			}
			xsrn, err := strconv.Atoi(strings.TrimSpace(line[6:10]))
			if err != nil {
				return nil, Error{"can't read BRANCH rotorX serial: " + err.Error(), filename, []string{"ReadLigand"}, true}
			}
			ysrn, err := strconv.Atoi(strings.TrimSpace(line[10:14]))
			if err != nil {
				return nil, Error{"can't read BRANCH rotorY serial: " + err.Error(), filename, []string{"ReadLigand"}, true}
			}
			f := l.Frames[current]
			xidx := -1
			for i := f.HABegin; i < len(l.HeavyAtoms); i++ {
				if l.HeavyAtoms[i].Serial == xsrn {
					xidx = i
					break
				}
			}
			if xidx < 0 {
				return nil, Error{"BRANCH rotorX serial " + strconv.Itoa(xsrn) + " not found in the current frame", filename, []string{"ReadLigand"}, true}
			}
			b := &Frame{
				Parent:    current,
				RotorXsrn: xsrn,
				RotorYsrn: ysrn,
				RotorXidx: xidx,
				RotorYidx: -1,
				HABegin:   len(l.HeavyAtoms),
				HYBegin:   len(l.Hydrogens),
			}
			f.Branches = append(f.Branches, len(l.Frames))
			current = len(l.Frames)
			l.Frames = append(l.Frames, b)
			//the atom run of the previously opened frame ends where the
			//new frame's begins. Ranges follow document order, not the
			//tree.
			prev := l.Frames[current-1]
			prev.HAEnd = b.HABegin
			prev.HYEnd = b.HYBegin
		case strings.HasPrefix(line, "ENDBRANCH"):
			l.Lines = append(l.Lines, line)
			f := l.Frames[current]
			if f.HABegin == len(l.HeavyAtoms) || f.RotorYidx < 0 {
				return nil, Error{"an empty BRANCH has been detected, the input ligand structure is probably invalid", filename, []string{"ReadLigand"}, true}
			}
			if current == len(l.Frames)-1 && f.HABegin+1 == len(l.HeavyAtoms) {
				f.Active = false
			} else {
				f.Active = true
				l.NumActiveTorsions++
			}
			bonds.SetEdge(simple.Edge{F: simple.Node(f.RotorXidx), T: simple.Node(f.RotorYidx)})
			rotorY := l.HeavyAtoms[f.RotorYidx]
			rotorX := l.HeavyAtoms[f.RotorXidx]
			if rotorY.IsHetero() && !rotorX.IsHetero() {
				rotorX.Dehydrophobicize()
			}
			if rotorX.IsHetero() && !rotorY.IsHetero() {
				rotorY.Dehydrophobicize()
			}
			p := l.Frames[f.Parent]
			f.ParentYToY = rotorY.Coord.Sub(l.HeavyAtoms[p.RotorYidx].Coord)
			f.XToY = rotorY.Coord.Sub(rotorX.Coord).Unit()
			current = f.Parent
		case strings.HasPrefix(line, "ROOT") || strings.HasPrefix(line, "ENDROOT") || strings.HasPrefix(line, "TORSDOF"):
			l.Lines = append(l.Lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, Error{"can't read ligand: " + err.Error(), filename, []string{"ReadLigand"}, true}
	}
	if current != 0 {
		return nil, Error{"BRANCH without a matching ENDBRANCH", filename, []string{"ReadLigand"}, true}
	}
	if len(l.HeavyAtoms) == 0 {
		return nil, Error{"no supported heavy atoms", filename, []string{"ReadLigand"}, true}
	}
	last := l.Frames[len(l.Frames)-1]
	last.HAEnd = len(l.HeavyAtoms)
	last.HYEnd = len(l.Hydrogens)

	//Rebase every atom to the rotorY origin of its frame. This is the
	//only mutation of the atoms after parsing.
	for _, f := range l.Frames {
		origin := l.HeavyAtoms[f.RotorYidx].Coord
		for i := f.HABegin; i < f.HAEnd; i++ {
			l.HeavyAtoms[i].Coord = l.HeavyAtoms[i].Coord.Sub(origin)
		}
		for i := f.HYBegin; i < f.HYEnd; i++ {
			l.Hydrogens[i].Coord = l.Hydrogens[i].Coord.Sub(origin)
		}
	}
	l.findInteractingPairs(bonds)
	return l, nil
}

//findInteractingPairs collects the pairs of heavy atoms of different
//frames whose separation depends on the torsions, leaving out pairs
//within three consecutive covalent bonds of each other and the pairs
//pinned by the frame tree itself.
func (l *Ligand) findInteractingPairs(bonds *simple.UndirectedGraph) {
	for k1, f1 := range l.Frames {
		for i := f1.HABegin; i < f1.HAEnd; i++ {
			neighbors := within3Bonds(bonds, i)
			for k2 := k1 + 1; k2 < len(l.Frames); k2++ {
				f2 := l.Frames[k2]
				f3 := l.Frames[f2.Parent]
				for j := f2.HABegin; j < f2.HAEnd; j++ {
					//the rotor bond itself and its flanking atoms keep
					//a fixed distance no matter the torsion.
					if k1 == f2.Parent && (i == f2.RotorXidx || j == f2.RotorYidx) {
						continue
					}
					if k1 > 0 && f1.Parent == f2.Parent && i == f1.RotorYidx && j == f2.RotorYidx {
						continue
					}
					if f2.Parent > 0 && k1 == f3.Parent && i == f3.RotorXidx && j == f2.RotorYidx {
						continue
					}
					if neighbors[j] {
						continue
					}
					o := scoringNR * PairIndex(l.HeavyAtoms[i].XS, l.HeavyAtoms[j].XS)
					l.Pairs = append(l.Pairs, InteractingPair{i, j, o})
				}
			}
		}
	}
}

//within3Bonds returns the set of heavy atoms reachable from atom i by
//at most three covalent bonds, i included.
func within3Bonds(bonds *simple.UndirectedGraph, i int) map[int]bool {
	neighbors := make(map[int]bool)
	bfs := traverse.BreadthFirst{}
	bfs.Walk(bonds, simple.Node(i), func(n graph.Node, d int) bool {
		if d > 3 {
			return true
		}
		neighbors[int(n.ID())] = true
		return false
	})
	return neighbors
}
