/*
 * bfgs.go, part of godock.
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
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rmera/godock/qtn"
)

const (
	//numAlphas is how many step lengths the line search tries before
	//giving up on the current descent direction.
	numAlphas = 5
	//alphaFactor shrinks the step length between attempts.
	alphaFactor = 0.1
	//armijo and curvature are the Wolfe condition parameters.
	armijo    = 1e-4
	curvature = 0.9
)

//BFGS searches for a low-energy pose of the ligand: a Monte-Carlo outer
//loop perturbs the position, relaxes the conformation with a
//line-searched BFGS minimization, and keeps the perturbed conformation
//whenever it improves on the incumbent. The same seed always yields the
//same Result, so runs can be distributed over goroutines with distinct
//seeds and reproduced at will.
func (l *Ligand) BFGS(sf *ScoringFunction, rec *Receptor, seed uint64, numGenerations int) *Result {
	nv := l.NumVariables()
	nc := l.NumConformation()
	eUpperBound := 40 * float64(len(l.HeavyAtoms))

	x0 := make([]float64, nc)
	x1 := make([]float64, nc)
	x2 := make([]float64, nc)
	g0 := make([]float64, nv)
	g1 := make([]float64, nv)
	g2 := make([]float64, nv)
	y := make([]float64, nv)
	p := mat.NewVecDense(nv, nil)
	mhy := mat.NewVecDense(nv, nil)
	h := mat.NewSymDense(nv, nil)
	uniform := distuv.Uniform{Min: -1, Max: 1, Src: rand.NewSource(seed)}

	//random initial conformation: position anywhere around the box,
	//orientation uniform on the unit 3-sphere, torsions in [-1, 1].
	for i := 0; i < 3; i++ {
		x0[i] = rec.Center[i] + uniform.Rand()*rec.Size[i]
	}
	q := qtn.Qtn{uniform.Rand(), uniform.Rand(), uniform.Rand(), uniform.Rand()}.Unit()
	copy(x0[3:7], q[:])
	for i := 0; i < l.NumActiveTorsions; i++ {
		x0[7+i] = uniform.Rand()
	}
	e0, _ := l.Evaluate(x0, sf, rec, eUpperBound, g0)
	best := l.composeResult(e0, x0)
	trace := make([]float64, 0, numGenerations+1)
	trace = append(trace, e0)

	for gen := 0; gen < numGenerations; gen++ {
		copy(x1, x0)
		x1[0] += uniform.Rand()
		x1[1] += uniform.Rand()
		x1[2] += uniform.Rand()
		e1, _ := l.Evaluate(x1, sf, rec, eUpperBound, g1)

		//the inverse Hessian starts as the identity and is improved by
		//rank-two updates as the minimization walks downhill.
		h.Zero()
		for i := 0; i < nv; i++ {
			h.SetSym(i, i, 1)
		}

		for {
			p.MulVec(h, mat.NewVecDense(nv, g1))
			p.ScaleVec(-1, p)
			pg1 := mat.Dot(p, mat.NewVecDense(nv, g1))

			var e2 float64
			alpha, found := 1.0, false
			for j := 0; j < numAlphas; j++ {
				l.step(x2, x1, p.RawVector().Data, alpha)
				var ok bool
				e2, ok = l.Evaluate(x2, sf, rec, e1+armijo*alpha*pg1, g2)
				if ok {
					pg2 := mat.Dot(p, mat.NewVecDense(nv, g2))
					if pg2 >= curvature*pg1 {
						found = true
						break
					}
				}
				alpha *= alphaFactor
			}
			if !found {
				break
			}

			for i := range y {
				y[i] = g2[i] - g1[i]
			}
			yv := mat.NewVecDense(nv, y)
			mhy.MulVec(h, yv)
			mhy.ScaleVec(-1, mhy)
			yhy := -mat.Dot(yv, mhy)
			yp := mat.Dot(yv, p)
			ryp := 1 / yp
			pco := ryp * (ryp*yhy + alpha)
			h.RankTwo(h, ryp, mhy, p)
			h.SymRankOne(h, pco, p)

			copy(x1, x2)
			e1 = e2
			copy(g1, g2)
		}

		if e1 < e0 {
			best = l.composeResult(e1, x1)
			copy(x0, x1)
			e0 = e1
		}
		trace = append(trace, e0)
	}
	best.Trace = trace
	return best
}

//step writes into x2 the conformation x1 advanced by alpha along the
//descent direction p: a plain shift for the position and the torsions,
//and a rotation-vector update composed onto the orientation.
func (l *Ligand) step(x2, x1, p []float64, alpha float64) {
	for i := 0; i < 3; i++ {
		x2[i] = x1[i] + alpha*p[i]
	}
	rv := qtn.Vec3{p[3], p[4], p[5]}.Scale(alpha)
	q1 := qtn.Qtn{x1[3], x1[4], x1[5], x1[6]}
	q2 := qtn.FromRotVec(rv).Mul(q1).Unit()
	copy(x2[3:7], q2[:])
	for i := 0; i < l.NumActiveTorsions; i++ {
		x2[7+i] = x1[7+i] + alpha*p[6+i]
	}
}
