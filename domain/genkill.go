package domain

// GenKillValue is a pair (Kill, Gen) representing a transfer function
// f(x) = (x \ Kill) ∪ Gen over a bitset of tracked facts (e.g. reaching
// definitions). Facts are identified by bit position, capped at 64 per
// analysis instance — enough for the worked reaching-definitions client in
// interproc/reachingdefs.
type GenKillValue struct {
	Kill uint64
	Gen  uint64
}

// GenKill is the idempotent semiring of gen/kill transfer functions.
//
// Composition (Extend(a, b), "apply a after b"):
//
//	f2(f1(x)) = ((x \ K1) ∪ G1) \ K2) ∪ G2
//	          = (x \ (K1 ∪ K2)) ∪ ((G1 \ K2) ∪ G2)
//
// Join (Combine):
//
//	f1(x) ∪ f2(x) = (x \ (K1 ∩ K2)) ∪ (G1 ∪ G2)
//
// Grounded on original_source/include/Dataflow/NPA/Domains/GenKillDomain.h;
// that header mislabels the extend-identity element (Kill=0, Gen=0) as
// zero() and never defines one() — here Zero is the combine-identity
// (Kill=all-ones, Gen=0, "always kill, never generate": the bottom of the
// join lattice) and One is the extend-identity (Kill=0, Gen=0: the identity
// transfer function), matching the algebra the header's own formulas imply.
type GenKill struct{}

func (GenKill) Zero() GenKillValue { return GenKillValue{Kill: ^uint64(0), Gen: 0} }
func (GenKill) One() GenKillValue  { return GenKillValue{Kill: 0, Gen: 0} }

func (GenKill) Combine(a, b GenKillValue) GenKillValue {
	return GenKillValue{Kill: a.Kill & b.Kill, Gen: a.Gen | b.Gen}
}

// Extend(a, b) means "apply a after b" (a ∘ b).
func (GenKill) Extend(a, b GenKillValue) GenKillValue {
	return GenKillValue{
		Kill: b.Kill | a.Kill,
		Gen:  (b.Gen &^ a.Kill) | a.Gen,
	}
}

func (d GenKill) ExtendLin(a, b GenKillValue) GenKillValue { return d.Extend(a, b) }

func (d GenKill) NdetCombine(a, b GenKillValue) GenKillValue { return d.Combine(a, b) }

func (d GenKill) CondCombine(phi Test, t, e GenKillValue) GenKillValue {
	return d.Combine(t, e)
}

// Subtract is never consulted: GenKill is idempotent.
func (GenKill) Subtract(a, _ GenKillValue) GenKillValue { return a }

func (GenKill) Equal(a, b GenKillValue) bool { return a.Kill == b.Kill && a.Gen == b.Gen }

func (GenKill) Idempotent() bool { return true }

// Apply evaluates the transfer function represented by v against a live
// bitset x: (x \ Kill) ∪ Gen.
func (v GenKillValue) Apply(x uint64) uint64 {
	return (x &^ v.Kill) | v.Gen
}
