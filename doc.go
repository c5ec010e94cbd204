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

/*Package dock docks small-molecule ligands into a rigid receptor.

Both molecules are read from PDBQT files. The receptor becomes a set of
precalculated energy grid maps, one per atom type present in the
ligands; a ligand becomes a tree of rigid frames connected by rotatable
bonds, plus the list of its interacting atom pairs.

A conformation is a position, an orientation quaternion and one dihedral
angle per active torsion. Evaluate scores a conformation against the
grid maps and the pairwise terms of the Vina scoring function, returning
the free energy and its analytic gradient. BFGS wraps the evaluation in
a Monte-Carlo search with a quasi-Newton local minimization; runs with
the same seed are reproducible, so the search parallelizes over
goroutines with distinct seeds.

Docked poses are written back as multi-MODEL PDBQT. Input and output
files may be gzip or zstd compressed, which OpenInput and CreateOutput
handle from the file extension alone.*/
package dock
