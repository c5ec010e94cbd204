package dock

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/rmera/godock/qtn"
)

//flexLigandText is a small flexible ligand: a three-carbon ROOT, a
//branch through an ester-like oxygen, and a terminal hydroxyl whose
//frame holds nothing but the oxygen and its hydrogen.
func flexLigandText() string {
	lines := []string{
		"ROOT",
		pdbqtLine(1, "C1", 1, 0.0, 0.0, 0.0, "C"),
		pdbqtLine(2, "C2", 1, 1.5, 0.0, 0.0, "C"),
		pdbqtLine(3, "C3", 1, -1.5, 0.0, 0.0, "C"),
		"ENDROOT",
		"BRANCH   2   4",
		pdbqtLine(4, "O1", 1, 2.2, 1.2, 0.0, "OA"),
		pdbqtLine(5, "C4", 1, 3.7, 1.3, 0.0, "C"),
		"BRANCH   5   6",
		pdbqtLine(6, "O2", 1, 4.4, 2.5, 0.5, "OA"),
		pdbqtLine(7, "H2", 1, 4.9, 3.2, 0.3, "HD"),
		"ENDBRANCH   5   6",
		"ENDBRANCH   2   4",
		"TORSDOF 2",
	}
	return strings.Join(lines, "\n") + "\n"
}

func flexLigand(Te *testing.T) *Ligand {
	l, err := ReadLigand(strings.NewReader(flexLigandText()), "flex.pdbqt")
	if err != nil {
		Te.Fatal(err)
	}
	return l
}

func TestReadLigandTopology(Te *testing.T) {
	l := flexLigand(Te)
	if len(l.Frames) != 3 || l.NumTorsions() != 2 {
		Te.Fatal("Expected 3 frames, got", len(l.Frames))
	}
	if len(l.HeavyAtoms) != 6 || len(l.Hydrogens) != 1 {
		Te.Fatal("Wrong atom counts:", len(l.HeavyAtoms), len(l.Hydrogens))
	}
	//the hydroxyl frame holds only its rotorY, so its torsion is moot
	if !l.Frames[1].Active || l.Frames[2].Active {
		Te.Error("Wrong frame activity:", l.Frames[1].Active, l.Frames[2].Active)
	}
	if l.NumActiveTorsions != 1 || l.NumConformation() != 8 || l.NumVariables() != 7 {
		Te.Error("Wrong degree-of-freedom counts")
	}
	//the hydroxyl oxygen is donorized by its hydrogen
	if l.HeavyAtoms[5].XS != xsODA {
		Te.Error("O2 was not donorized:", l.HeavyAtoms[5].XS)
	}
	//carbons bonded to oxygens lose their hydrophobicity, the rest keep it
	for i, want := range []int{xsCH, xsCP, xsCH, xsOA, xsCP, xsODA} {
		if l.HeavyAtoms[i].XS != want {
			Te.Error("Wrong XScore type for atom", i, l.HeavyAtoms[i].XS, want)
		}
	}
	//atom ranges follow document order
	f := l.Frames
	if f[0].HABegin != 0 || f[0].HAEnd != 3 || f[1].HABegin != 3 || f[1].HAEnd != 5 || f[2].HABegin != 5 || f[2].HAEnd != 6 {
		Te.Error("Wrong heavy atom ranges")
	}
	if f[2].HYBegin != 0 || f[2].HYEnd != 1 || f[0].HYEnd != 0 {
		Te.Error("Wrong hydrogen ranges")
	}
	if len(f[0].Branches) != 1 || f[0].Branches[0] != 1 || len(f[1].Branches) != 1 || f[1].Branches[0] != 2 {
		Te.Error("Wrong tree shape")
	}
	//atoms are rebased to their frame's rotorY
	if l.HeavyAtoms[3].Coord != (qtn.Vec3{}) || l.HeavyAtoms[5].Coord != (qtn.Vec3{}) {
		Te.Error("RotorY atoms should sit at their frame origin")
	}
	if !vclose3(l.HeavyAtoms[4].Coord, qtn.Vec3{1.5, 0.1, 0}) {
		Te.Error("C4 not rebased to the O1 origin:", l.HeavyAtoms[4].Coord)
	}
	if !vclose3(l.Frames[1].ParentYToY, qtn.Vec3{2.2, 1.2, 0}) {
		Te.Error("Wrong rotorY offset for frame 1")
	}
	if !l.Frames[1].XToY.IsUnit(1e-9) || !l.Frames[2].XToY.IsUnit(1e-9) {
		Te.Error("Rotor axes should be unit vectors")
	}
	//only the pairs whose separation depends on the torsions remain
	want := []InteractingPair{
		{0, 5, scoringNR * PairIndex(xsCH, xsODA)},
		{2, 4, scoringNR * PairIndex(xsCH, xsCP)},
		{2, 5, scoringNR * PairIndex(xsCH, xsODA)},
	}
	if !reflect.DeepEqual(l.Pairs, want) {
		Te.Error("Wrong interacting pairs:", l.Pairs)
	}
}

func vclose3(a, b qtn.Vec3) bool {
	return math.Abs(a[0]-b[0]) <= 1e-9 && math.Abs(a[1]-b[1]) <= 1e-9 && math.Abs(a[2]-b[2]) <= 1e-9
}

func TestReadLigandRejectsEmptyBranch(Te *testing.T) {
	text := "ROOT\n" + pdbqtLine(1, "C1", 1, 0, 0, 0, "C") + "\nENDROOT\n" +
		"BRANCH   1   9\nENDBRANCH   1   9\nTORSDOF 1\n"
	_, err := ReadLigand(strings.NewReader(text), "empty.pdbqt")
	if err == nil {
		Te.Fatal("An empty BRANCH should be rejected")
	}
	if !strings.Contains(err.Error(), "empty.pdbqt") {
		Te.Error("The error should name the offending file:", err)
	}
}

//emptyBoxReceptor returns a receptor with no atoms and all-zero maps,
//so that only the intra-ligand pair term contributes to the energy.
func emptyBoxReceptor() *Receptor {
	r := &Receptor{
		Center:             qtn.Vec3{0, 0, 0},
		Size:               qtn.Vec3{40, 40, 40},
		Granularity:        1,
		GranularityInverse: 1,
	}
	for i := 0; i < 3; i++ {
		r.corner0[i] = -20
		r.corner1[i] = 20
		r.NumProbes[i] = 41
	}
	r.AllocateMaps([]int{xsCH, xsCP, xsOA, xsODA})
	return r
}

func TestEvaluatePairTermOnly(Te *testing.T) {
	l := flexLigand(Te)
	sf := testSF()
	rec := emptyBoxReceptor()
	x := []float64{0, 0, 0, 1, 0, 0, 0, 0.3}
	g := make([]float64, l.NumVariables())
	e, ok := l.Evaluate(x, sf, rec, 40*float64(len(l.HeavyAtoms)), g)
	if !ok {
		Te.Fatal("Evaluation rejected a reasonable conformation, e =", e)
	}
	//with a zero grid, the pair forces are internal: the net force and
	//the net torque about ROOT vanish identically
	for i := 0; i < 6; i++ {
		if math.Abs(g[i]) > 1e-9 {
			Te.Error("Internal forces should cancel, g[", i, "] =", g[i])
		}
	}
	//the torsion gradient against central finite differences
	for _, theta := range []float64{-0.7, 0.3, 1.0} {
		x[7] = theta
		if _, ok := l.Evaluate(x, sf, rec, 1e9, g); !ok {
			Te.Fatal("Evaluation rejected")
		}
		const delta = 0.02
		dir := make([]float64, l.NumVariables())
		dir[6] = 1
		xp := make([]float64, len(x))
		xm := make([]float64, len(x))
		l.step(xp, x, dir, delta)
		l.step(xm, x, dir, -delta)
		ep, _ := l.Evaluate(xp, sf, rec, 1e9, make([]float64, l.NumVariables()))
		em, _ := l.Evaluate(xm, sf, rec, 1e9, make([]float64, l.NumVariables()))
		fd := (ep - em) / (2 * delta)
		if math.Abs(fd-g[6]) > 0.02+0.1*math.Abs(g[6]) {
			Te.Error("Torsion gradient mismatch at theta =", theta, "analytic", g[6], "numeric", fd)
		}
	}
}

func TestEvaluateGridTerm(Te *testing.T) {
	l := flexLigand(Te)
	sf := testSF()
	rec := &Receptor{
		Center:             qtn.Vec3{0, 0, 0},
		Size:               qtn.Vec3{16, 16, 16},
		Granularity:        1,
		GranularityInverse: 1,
	}
	for i := 0; i < 3; i++ {
		rec.corner0[i] = -8
		rec.corner1[i] = 8
		rec.NumProbes[i] = 17
	}
	//a grid linear in the lattice index makes the finite-difference
	//derivative exact whenever the probe step is a whole granularity
	alpha, beta, gamma := 0.25, 0.5, -0.125
	for _, xs := range []int{xsCH, xsCP, xsOA, xsODA} {
		m := make([]float64, 17*17*17)
		for iz := 0; iz < 17; iz++ {
			for iy := 0; iy < 17; iy++ {
				for ix := 0; ix < 17; ix++ {
					m[rec.MapIndex(ix, iy, iz)] = alpha*float64(ix) + beta*float64(iy) + gamma*float64(iz)
				}
			}
		}
		rec.Maps[xs] = m
	}
	x := []float64{0, 0, 0, 1, 0, 0, 0, 0.1}
	g := make([]float64, l.NumVariables())
	if _, ok := l.Evaluate(x, sf, rec, 1e9, g); !ok {
		Te.Fatal("Evaluation rejected")
	}
	//pair forces cancel in the total, leaving one grid slope per atom
	n := float64(len(l.HeavyAtoms))
	for i, want := range []float64{n * alpha, n * beta, n * gamma} {
		if math.Abs(g[i]-want) > 1e-9 {
			Te.Error("Wrong grid force component", i, g[i], want)
		}
	}
	//central differences with a step of exactly one granularity
	for i := 0; i < 3; i++ {
		xp := append([]float64{}, x...)
		xm := append([]float64{}, x...)
		xp[i] += 1
		xm[i] -= 1
		ep, _ := l.Evaluate(xp, sf, rec, 1e9, make([]float64, l.NumVariables()))
		em, _ := l.Evaluate(xm, sf, rec, 1e9, make([]float64, l.NumVariables()))
		if fd := (ep - em) / 2; math.Abs(fd-g[i]) > 1e-9 {
			Te.Error("Grid gradient mismatch on axis", i, g[i], fd)
		}
	}
}

func TestEvaluateSoftWall(Te *testing.T) {
	l := flexLigand(Te)
	sf := testSF()
	rec := emptyBoxReceptor()
	//far outside the box every heavy atom pays the wall penalty
	x := []float64{500, 500, 500, 1, 0, 0, 0, 0}
	g := make([]float64, l.NumVariables())
	e, ok := l.Evaluate(x, sf, rec, 1e9, g)
	if !ok {
		Te.Fatal("Evaluation rejected")
	}
	//the pair term still applies at the same relative geometry, so
	//compare against the in-box energy of the same pose
	xin := []float64{0, 0, 0, 1, 0, 0, 0, 0}
	ein, _ := l.Evaluate(xin, sf, rec, 1e9, make([]float64, l.NumVariables()))
	if math.Abs(e-ein-10*float64(len(l.HeavyAtoms))) > 1e-9 {
		Te.Error("Wrong wall penalty:", e-ein)
	}
}

func TestPairEnergyRotationInvariance(Te *testing.T) {
	l := flexLigand(Te)
	sf := testSF()
	rec := emptyBoxReceptor()
	x := []float64{0, 0, 0, 1, 0, 0, 0, 0.4}
	g := make([]float64, l.NumVariables())
	e0, _ := l.Evaluate(x, sf, rec, 1e9, g)
	//rigidly rotate the whole conformation about an axis through ROOT
	r := qtn.AxisAngle(qtn.Vec3{1, 2, -1}.Unit(), 0.9)
	q := r.Mul(qtn.Qtn{x[3], x[4], x[5], x[6]}).Unit()
	xr := append([]float64{}, x...)
	copy(xr[3:7], q[:])
	e1, _ := l.Evaluate(xr, sf, rec, 1e9, g)
	//with a zero grid only the pair term remains, which can change just
	//by table-sample flips at the rotated distances
	if math.Abs(e1-e0) > 1e-3 {
		Te.Error("Pair energy not rotation invariant:", e0, e1)
	}
}

func TestComposeResultKinematics(Te *testing.T) {
	l := flexLigand(Te)
	x := []float64{3, -2, 1, 1, 0, 0, 0, 0.8}
	r := l.composeResult(-1.5, x)
	if len(r.HeavyAtoms) != 6 || len(r.Hydrogens) != 1 {
		Te.Fatal("Wrong result sizes")
	}
	//with the identity orientation, ROOT atoms are just translated
	if !vclose3(r.HeavyAtoms[0], qtn.Vec3{3, -2, 1}) || !vclose3(r.HeavyAtoms[1], qtn.Vec3{4.5, -2, 1}) {
		Te.Error("ROOT atoms misplaced:", r.HeavyAtoms[0], r.HeavyAtoms[1])
	}
	//bond lengths survive any torsion
	const d14 = 1.503329638 //parse-time O1-C4 distance
	got := r.HeavyAtoms[4].Sub(r.HeavyAtoms[3]).Norm()
	if math.Abs(got-d14) > 1e-6 {
		Te.Error("O1-C4 bond length changed:", got)
	}
	//the hydroxyl hydrogen keeps its distance to its oxygen
	oh := r.Hydrogens[0].Sub(r.HeavyAtoms[5]).Norm()
	want := qtn.Vec3{0.5, 0.7, -0.2}.Norm()
	if math.Abs(oh-want) > 1e-6 {
		Te.Error("O2-H2 bond length changed:", oh)
	}
	//changing the active torsion moves the branch but not ROOT
	x2 := append([]float64{}, x...)
	x2[7] = -0.8
	r2 := l.composeResult(-1.5, x2)
	for i := 0; i < 3; i++ {
		if !vclose3(r2.HeavyAtoms[i], r.HeavyAtoms[i]) {
			Te.Error("ROOT atom", i, "moved with a branch torsion")
		}
	}
	if vclose3(r2.HeavyAtoms[4], r.HeavyAtoms[4]) {
		Te.Error("C4 should move with its torsion")
	}
	//the rotorY of the branch sits on the axis, so it stays put
	if !vclose3(r2.HeavyAtoms[3], r.HeavyAtoms[3]) {
		Te.Error("O1 should sit still on its own rotor axis")
	}
}

func TestBFGSDeterminism(Te *testing.T) {
	if testing.Short() {
		Te.Skip("skipping optimization in short mode")
	}
	l := flexLigand(Te)
	sf := testSF()
	rec := emptyBoxReceptor()
	a := l.BFGS(sf, rec, 42, 5)
	b := l.BFGS(sf, rec, 42, 5)
	if !reflect.DeepEqual(a, b) {
		Te.Error("The same seed should reproduce the same pose")
	}
	if len(a.HeavyAtoms) != 6 || len(a.Hydrogens) != 1 {
		Te.Error("Wrong pose sizes")
	}
	if math.IsNaN(a.E) || math.IsInf(a.E, 0) {
		Te.Error("Pose energy is not finite:", a.E)
	}
	//more generations can only improve or retain the best energy
	c := l.BFGS(sf, rec, 42, 20)
	if c.E > a.E+1e-12 {
		Te.Error("The retained best energy increased across generations:", a.E, c.E)
	}
}

func TestWriteModels(Te *testing.T) {
	l := flexLigand(Te)
	r := &Result{
		E:          -7.5,
		HeavyAtoms: make([]qtn.Vec3, 6),
		Hydrogens:  []qtn.Vec3{{9, 8, 7}},
	}
	for i := range r.HeavyAtoms {
		r.HeavyAtoms[i] = qtn.Vec3{float64(i), 0.5, -1.25}
	}
	var buf bytes.Buffer
	if err := l.WriteModels(&buf, []*Result{r}); err != nil {
		Te.Fatal(err)
	}
	out := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if out[0] != "MODEL        1" {
		Te.Error("Wrong MODEL line:", out[0])
	}
	if !strings.Contains(out[1], "-7.500 KCAL/MOL") {
		Te.Error("Wrong REMARK line:", out[1])
	}
	//one active and one inactive torsion discount the normalized energy
	if !strings.Contains(out[2], "NORMALIZED") || !strings.Contains(out[2], "-6.895 KCAL/MOL") {
		Te.Error("Wrong normalized REMARK line:", out[2])
	}
	if out[len(out)-1] != "ENDMDL" {
		Te.Error("Missing ENDMDL")
	}
	var atoms, hydros int
	for _, line := range out {
		if len(line) < 79 {
			continue
		}
		if line[77] == 'H' {
			hydros++
			if line[30:54] != "   9.000   8.000   7.000" {
				Te.Error("Wrong hydrogen coordinates:", line[30:54])
			}
		} else {
			if !strings.Contains(line[30:54], "0.500  -1.250") {
				Te.Error("Wrong heavy atom coordinates:", line[30:54])
			}
			atoms++
		}
		if line[70:76] != "     0" {
			Te.Error("Charge columns not zeroed:", line[70:76])
		}
	}
	if atoms != 6 || hydros != 1 {
		Te.Error("Wrong rewritten line counts:", atoms, hydros)
	}
	//the topology records are echoed verbatim
	joined := buf.String()
	for _, rec := range []string{"ROOT", "BRANCH   2   4", "ENDBRANCH   5   6", "TORSDOF 2"} {
		if !strings.Contains(joined, rec) {
			Te.Error("Missing record:", rec)
		}
	}
}

//shiftedPose builds a pose with all six heavy atoms displaced by dx
//along x, so RMSDs between poses are exactly the |dx| differences.
func shiftedPose(e, dx float64) *Result {
	r := &Result{E: e, HeavyAtoms: make([]qtn.Vec3, 6)}
	for i := range r.HeavyAtoms {
		r.HeavyAtoms[i] = qtn.Vec3{float64(i) + dx, 0, 0}
	}
	return r
}

func TestSelectRepresentatives(Te *testing.T) {
	a := shiftedPose(-9, 0)
	if d := a.RMSD(shiftedPose(-9, 3)); math.Abs(d-3) > 1e-12 {
		Te.Error("Wrong RMSD for a rigid shift:", d)
	}
	poses := []*Result{
		shiftedPose(-5, 0.5), //within 2 A of the best, dropped
		shiftedPose(-9, 0),   //best energy, always first
		shiftedPose(-7, 3),   //distinct, kept
		shiftedPose(-6, 3.1), //within 2 A of the previous, dropped
		shiftedPose(-4, 8),   //distinct but beyond max
	}
	kept := SelectRepresentatives(poses, 2.0, 2)
	if len(kept) != 2 {
		Te.Fatal("Wrong number of representatives:", len(kept))
	}
	if kept[0].E != -9 || kept[1].E != -7 {
		Te.Error("Wrong representatives:", kept[0].E, kept[1].E)
	}
	//the input order is not disturbed
	if poses[0].E != -5 {
		Te.Error("SelectRepresentatives reordered its input")
	}
}
