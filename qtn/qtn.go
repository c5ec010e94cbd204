/*
 * qtn.go, part of godock.
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

package qtn

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

//appzero is the tolerance under which a float is considered zero.
const appzero = 1e-10

//Vec3 is a point or displacement in 3D space.
type Vec3 [3]float64

//Add returns the sum of v and w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

//Sub returns the difference v-w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

//Scale returns v multiplied by the scalar s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{s * v[0], s * v[1], s * v[2]}
}

//Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

//Cross returns the cross product v x w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}
}

//NormSqr returns the squared Euclidean norm of v.
func (v Vec3) NormSqr() float64 {
	return v.Dot(v)
}

//Norm returns the Euclidean norm of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.NormSqr())
}

//Unit returns v scaled to unit norm. It panics if v is the zero
//vector, as asking for the direction of nothing is a programming error.
func (v Vec3) Unit() Vec3 {
	n := v.Norm()
	if n < appzero {
		panic("qtn: Unit called on a zero-norm vector")
	}
	return v.Scale(1 / n)
}

//IsUnit tells whether v has unit norm, within tol.
func (v Vec3) IsUnit(tol float64) bool {
	return math.Abs(v.Norm()-1) <= tol
}

//DistSqr returns the squared distance between the points v and w.
func DistSqr(v, w Vec3) float64 {
	return w.Sub(v).NormSqr()
}

//Qtn is a quaternion in (w, x, y, z) order. Orientations are always
//represented by unit quaternions.
type Qtn [4]float64

//Identity returns the identity rotation.
func Identity() Qtn {
	return Qtn{1, 0, 0, 0}
}

func (q Qtn) number() quat.Number {
	return quat.Number{Real: q[0], Imag: q[1], Jmag: q[2], Kmag: q[3]}
}

func fromNumber(n quat.Number) Qtn {
	return Qtn{n.Real, n.Imag, n.Jmag, n.Kmag}
}

//Mul returns the Hamilton product q*r. As with any quaternion
//composition, the rotation of the right operand is applied first.
func (q Qtn) Mul(r Qtn) Qtn {
	return fromNumber(quat.Mul(q.number(), r.number()))
}

//Norm returns the norm of q.
func (q Qtn) Norm() float64 {
	return quat.Abs(q.number())
}

//Unit returns q scaled back to unit norm. Orientation quaternions drift
//away from the 3-sphere after repeated composition, so they get passed
//through here after every update.
func (q Qtn) Unit() Qtn {
	n := q.Norm()
	if n < appzero {
		panic("qtn: Unit called on a zero-norm quaternion")
	}
	inv := 1 / n
	return Qtn{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}

//IsUnit tells whether q has unit norm, within tol.
func (q Qtn) IsUnit(tol float64) bool {
	return math.Abs(q.Norm()-1) <= tol
}

//AxisAngle builds the unit quaternion for a rotation of theta radians
//about the unit vector axis. The caller must hand in a normalized axis.
func AxisAngle(axis Vec3, theta float64) Qtn {
	s, c := math.Sincos(0.5 * theta)
	return Qtn{c, s * axis[0], s * axis[1], s * axis[2]}
}

//FromRotVec builds the unit quaternion for the rotation encoded by the
//vector v: the rotation axis is v normalized and the angle is the norm
//of v. The zero vector yields the identity rotation.
func FromRotVec(v Vec3) Qtn {
	theta := v.Norm()
	if theta < appzero {
		return Identity()
	}
	return AxisAngle(v.Scale(1/theta), theta)
}

//Mat3 is a 3x3 matrix in row-major order.
type Mat3 [9]float64

//MulVec returns the matrix-vector product m*v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

//Mat3 returns the rotation matrix of the unit quaternion q.
func (q Qtn) Mat3() Mat3 {
	w, x, y, z := q[0], q[1], q[2], q[3]
	ww, xx, yy, zz := w*w, x*x, y*y, z*z
	wx, wy, wz := w*x, w*y, w*z
	xy, xz, yz := x*y, x*z, y*z
	return Mat3{
		ww + xx - yy - zz, 2 * (xy - wz), 2 * (xz + wy),
		2 * (xy + wz), ww - xx + yy - zz, 2 * (yz - wx),
		2 * (xz - wy), 2 * (yz + wx), ww - xx - yy + zz,
	}
}

//Rotate applies the rotation of the unit quaternion q to v.
func (q Qtn) Rotate(v Vec3) Vec3 {
	return q.Mat3().MulVec(v)
}
