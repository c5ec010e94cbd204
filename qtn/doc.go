/*
 * doc.go, part of godock.
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

/*Package qtn implements the small geometric kernel used by the docking code:
3D vectors, unit quaternions and 3x3 rotation matrices. Unlike the coordinate
matrices of goChem's v3 package, which are gonum Dense matrices of arbitrary
length, the types here are fixed-size arrays, as they sit in the innermost
loops of the conformation evaluator. Quaternion products are delegated to
gonum's num/quat.

The component order of a quaternion is (w, x, y, z). The rotation angle given
to AxisAngle is a full angle in radians; the half-angle business happens
inside. FromRotVec takes a rotation vector whose norm is the angle, with the
zero vector mapping to the identity rotation.
*/
package qtn
