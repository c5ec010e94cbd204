/*
 * atom.go, part of godock.
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
	"strconv"
	"strings"

	"github.com/rmera/godock/qtn"
)

//AutoDock atom types, in the order of the adInfo table.
const (
	adH = iota
	adHD
	adC
	adA
	adN
	adNA
	adOA
	adSA
	adS
	adSe
	adP
	adF
	adCl
	adBr
	adI
	adZn
	adFe
	adMg
	adCa
	adMn
	numADTypes
)

//XScore interaction types. These index the receptor grid maps and the
//pairwise scoring tables.
const (
	xsCH = iota //hydrophobic carbon
	xsCP        //polar carbon, i.e. bonded to at least one hetero atom
	xsNP
	xsND
	xsNA
	xsNDA
	xsOA
	xsODA
	xsSP
	xsPP
	xsFH
	xsClH
	xsBrH
	xsIH
	xsMetD
	//NumXS is the number of XScore atom types.
	NumXS
)

//adInfo relates an AutoDock type string to its covalent radius (already
//scaled by the 1.1 tolerance used in the bond criterion) and its initial
//XScore type. The XScore type of a carbon or a donorizable atom may change
//during ligand parsing.
var adInfo = [numADTypes]struct {
	name      string
	covRadius float64
	xs        int
}{
	{"H", 0.407, -1},
	{"HD", 0.407, -1},
	{"C", 0.847, xsCH},
	{"A", 0.847, xsCH},
	{"N", 0.825, xsNP},
	{"NA", 0.825, xsNA},
	{"OA", 0.803, xsOA},
	{"SA", 1.122, xsSP},
	{"S", 1.122, xsSP},
	{"Se", 1.276, xsSP},
	{"P", 1.166, xsPP},
	{"F", 0.781, xsFH},
	{"Cl", 1.089, xsClH},
	{"Br", 1.254, xsBrH},
	{"I", 1.463, xsIH},
	{"Zn", 1.441, xsMetD},
	{"Fe", 1.375, xsMetD},
	{"Mg", 1.430, xsMetD},
	{"Ca", 1.914, xsMetD},
	{"Mn", 1.529, xsMetD},
}

//XSRadius returns the van der Waals radius of an XScore type, used by the
//scoring function to shift interatomic distances to surface distances.
func XSRadius(xs int) float64 {
	switch xs {
	case xsCH, xsCP:
		return 1.9
	case xsNP, xsND, xsNA, xsNDA:
		return 1.8
	case xsOA, xsODA:
		return 1.7
	case xsSP:
		return 2.0
	case xsPP:
		return 2.1
	case xsFH:
		return 1.5
	case xsClH:
		return 1.8
	case xsBrH:
		return 2.0
	case xsIH:
		return 2.2
	case xsMetD:
		return 1.2
	}
	panic(ErrXSOutOfRange)
}

//xsIsHydrophobic tells whether an XScore type takes part in the
//hydrophobic term.
func xsIsHydrophobic(xs int) bool {
	return xs == xsCH || xs == xsFH || xs == xsClH || xs == xsBrH || xs == xsIH
}

//xsIsDonor tells whether an XScore type is a hydrogen bond donor.
func xsIsDonor(xs int) bool {
	return xs == xsND || xs == xsNDA || xs == xsODA || xs == xsMetD
}

//xsIsAcceptor tells whether an XScore type is a hydrogen bond acceptor.
func xsIsAcceptor(xs int) bool {
	return xs == xsNA || xs == xsNDA || xs == xsOA || xs == xsODA
}

//xsHBond tells whether the pair (t0, t1) can form a hydrogen bond.
func xsHBond(t0, t1 int) bool {
	return (xsIsDonor(t0) && xsIsAcceptor(t1)) || (xsIsDonor(t1) && xsIsAcceptor(t0))
}

//Atom is an atom of a ligand or receptor as read from a PDBQT file. The
//coordinate of a ligand atom is rewritten exactly once after parsing, to be
//relative to the rotor-Y origin of its owning frame.
type Atom struct {
	Serial int //atom serial number as read from the input file
	Name   string
	Coord  qtn.Vec3
	AD     int //AutoDock atom type
	XS     int //XScore atom type; -1 for hydrogens
}

//parseAtom reads an ATOM or HETATM line of a PDBQT file. An atom whose
//AutoDock type is not in the adInfo table is returned with AD < 0; callers
//keep its line for output but skip it for topology.
func parseAtom(line string) (*Atom, error) {
	if len(line) < 79 {
		return nil, Error{"ATOM/HETATM line too short", "", []string{"parseAtom"}, true}
	}
	a := new(Atom)
	var err error
	a.Serial, err = strconv.Atoi(strings.TrimSpace(line[6:11]))
	if err != nil {
		return nil, Error{"can't read atom serial: " + err.Error(), "", []string{"parseAtom"}, true}
	}
	a.Name = strings.TrimSpace(line[12:16])
	for i := 0; i < 3; i++ {
		a.Coord[i], err = strconv.ParseFloat(strings.TrimSpace(line[30+8*i:38+8*i]), 64)
		if err != nil {
			return nil, Error{"can't read atom coordinates: " + err.Error(), "", []string{"parseAtom"}, true}
		}
	}
	ad := strings.TrimSpace(line[77:79])
	a.AD = -1
	a.XS = -1
	for i := range adInfo {
		if adInfo[i].name == ad {
			a.AD = i
			a.XS = adInfo[i].xs
			break
		}
	}
	return a, nil
}

//Supported tells whether the atom's AutoDock type is known to godock.
func (a *Atom) Supported() bool {
	return a.AD >= 0
}

//IsHydrogen tells whether the atom is a hydrogen, polar or not.
func (a *Atom) IsHydrogen() bool {
	return a.AD == adH || a.AD == adHD
}

//IsPolarHydrogen tells whether the atom is a polar hydrogen, i.e. one
//bonded to a hetero atom. Its bonded hetero atom is a hydrogen bond donor.
func (a *Atom) IsPolarHydrogen() bool {
	return a.AD == adHD
}

//IsHetero tells whether the atom is neither carbon nor hydrogen.
func (a *Atom) IsHetero() bool {
	return a.AD >= adN
}

//CovalentRadius returns the atom's covalent radius, scaled by the 1.1
//tolerance of the bond criterion.
func (a *Atom) CovalentRadius() float64 {
	return adInfo[a.AD].covRadius
}

//HasCovalentBond tells whether the distance between a and b is below the
//sum of their scaled covalent radii.
func (a *Atom) HasCovalentBond(b *Atom) bool {
	s := a.CovalentRadius() + b.CovalentRadius()
	return qtn.DistSqr(a.Coord, b.Coord) < s*s
}

//Donorize marks a hetero atom as a hydrogen bond donor, promoting its
//XScore type.
func (a *Atom) Donorize() {
	switch a.XS {
	case xsNP:
		a.XS = xsND
	case xsNA:
		a.XS = xsNDA
	case xsOA:
		a.XS = xsODA
	}
}

//Dehydrophobicize demotes a hydrophobic carbon to a polar carbon. It is
//called when the carbon turns out to be bonded to a hetero atom.
func (a *Atom) Dehydrophobicize() {
	if a.XS == xsCH {
		a.XS = xsCP
	}
}
