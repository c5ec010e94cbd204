/*
 * evaluate.go, part of godock.
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
	"github.com/rmera/godock/qtn"
)

//A conformation vector x holds the ROOT position in x[0:3], the ROOT
//orientation quaternion in x[3:7] (w, x, y, z) and one angle in radians
//per active torsion from x[7] on, in frame order. The matching gradient
//g holds the force in g[0:3], the torque in g[3:6] and the torque
//projections on the rotor axes from g[6] on.

//Evaluate computes the free energy of the conformation x and its
//gradient, written into g, which must have length NumVariables. It
//returns false, leaving g untouched, if the energy reaches
//eUpperBound; the line search uses this to reject a step without paying
//for the gradient. All scratch space is local, so concurrent calls on
//the same ligand are safe.
func (l *Ligand) Evaluate(x []float64, sf *ScoringFunction, rec *Receptor, eUpperBound float64, g []float64) (float64, bool) {
	if len(x) != l.NumConformation() || len(g) != l.NumVariables() {
		panic(ErrBadConformation)
	}
	nf := len(l.Frames)
	o := make([]qtn.Vec3, nf)  //frame origins, i.e. rotorY positions
	a := make([]qtn.Vec3, nf)  //world rotor axes
	q := make([]qtn.Qtn, nf)   //frame orientations
	gf := make([]qtn.Vec3, nf) //aggregated force per frame
	gt := make([]qtn.Vec3, nf) //aggregated torque per frame
	ti := make([]int, nf)      //torsion index of each active frame
	c := make([]qtn.Vec3, len(l.HeavyAtoms))
	d := make([]qtn.Vec3, len(l.HeavyAtoms))

	o[0] = qtn.Vec3{x[0], x[1], x[2]}
	q[0] = qtn.Qtn{x[3], x[4], x[5], x[6]}

	//forward kinematics: walk the tree in frame order, which always
	//visits a parent before its children.
	for k, t := 0, 0; k < nf; k++ {
		f := l.Frames[k]
		m := q[k].Mat3()
		for i := f.HABegin; i < f.HAEnd; i++ {
			c[i] = o[k].Add(m.MulVec(l.HeavyAtoms[i].Coord))
		}
		for _, bi := range f.Branches {
			b := l.Frames[bi]
			o[bi] = o[k].Add(m.MulVec(b.ParentYToY))
			if !b.Active {
				//an inactive frame holds only its rotorY, whose local
				//coordinate is zero, so its orientation is moot.
				continue
			}
			a[bi] = m.MulVec(b.XToY)
			q[bi] = qtn.AxisAngle(a[bi], x[7+t]).Mul(q[k]).Unit()
			ti[bi] = t
			t++
		}
	}

	e := 0.0
	for i, atom := range l.HeavyAtoms {
		if !rec.Within(c[i]) {
			//a soft wall: constant penalty, no gradient.
			e += 10
			d[i] = qtn.Vec3{}
			continue
		}
		gmap := rec.Maps[atom.XS]
		idx := rec.CoordinateToIndex(c[i])
		o000 := rec.MapIndex(idx[0], idx[1], idx[2])
		e000 := gmap[o000]
		e100 := gmap[o000+1]
		e010 := gmap[o000+rec.NumProbes[0]]
		e001 := gmap[o000+rec.NumProbes[0]*rec.NumProbes[1]]
		d[i] = qtn.Vec3{e100 - e000, e010 - e000, e001 - e000}.Scale(rec.GranularityInverse)
		e += e000
	}

	for _, p := range l.Pairs {
		r := c[p.I1].Sub(c[p.I0])
		r2 := r.NormSqr()
		if r2 >= CutoffSqr {
			continue
		}
		off := p.Offset + int(float64(sf.NS)*r2)
		e += sf.E[off]
		der := r.Scale(sf.D[off])
		d[p.I0] = d[p.I0].Sub(der)
		d[p.I1] = d[p.I1].Add(der)
	}

	if e >= eUpperBound {
		return e, false
	}

	//back-propagation: fold each frame's force and torque into its
	//parent, leaf frames first, projecting the torque of each active
	//frame on its rotor axis along the way.
	for k := nf - 1; k > 0; k-- {
		f := l.Frames[k]
		for i := f.HABegin; i < f.HAEnd; i++ {
			gf[k] = gf[k].Add(d[i])
			gt[k] = gt[k].Add(c[i].Sub(o[k]).Cross(d[i]))
		}
		gf[f.Parent] = gf[f.Parent].Add(gf[k])
		gt[f.Parent] = gt[f.Parent].Add(gt[k]).Add(o[k].Sub(o[f.Parent]).Cross(gf[k]))
		if !f.Active {
			continue
		}
		g[6+ti[k]] = gt[k].Dot(a[k])
	}
	root := l.Frames[0]
	for i := root.HABegin; i < root.HAEnd; i++ {
		gf[0] = gf[0].Add(d[i])
		gt[0] = gt[0].Add(c[i].Sub(o[0]).Cross(d[i]))
	}
	g[0], g[1], g[2] = gf[0][0], gf[0][1], gf[0][2]
	g[3], g[4], g[5] = gt[0][0], gt[0][1], gt[0][2]
	return e, true
}
