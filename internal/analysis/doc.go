// Package analysis summarises speed distributions of a hard-disk gas.
//
// An elastic gas relaxes towards the two-dimensional Maxwell-Boltzmann
// distribution, whose speed marginal is a Rayleigh distribution with
// sigma^2 = kT/m:
//
//	sum := analysis.Summarize(speeds, mass)
//	d := analysis.KSDistance(speeds, sum.Sigma())
//	if d < 0.05 {
//	    // close to equilibrium
//	}
package analysis
