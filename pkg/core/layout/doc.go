// Package layout computes 2D positions for a network by stress
// majorization.
//
// # Stress
//
// The layout minimizes
//
//	stress(X) = Σ_{i<j} w_ij · (‖x_i − x_j‖ − d_ij)²,   w_ij = 1/d_ij²
//
// over all node pairs with a finite graph distance d_ij, measured in hops
// over the undirected view of the network.
//
// # Full solve
//
// [Solver.Solve] follows the stochastic gradient descent scheme of Zheng,
// Pawar and Goodman ("Graph Drawing by Stochastic Gradient Descent"):
//
//  1. Build one term per connected pair from all-pairs BFS and record d_max.
//  2. Scatter nodes pseudo-randomly from a PCG generator seeded with
//     [Options.Seed]. The same seed and snapshot always give the same layout.
//  3. Run [Options.Epochs] epochs with a step size annealed exponentially
//     from d_max² down to [Options.Epsilon]. Each epoch shuffles the terms and
//     moves both endpoints of each term symmetrically by
//     μ·(‖x_i − x_j‖ − d_ij)/2 with μ = min(w_ij·η, 1).
//  4. Rotate each connected component onto the previous frame (2D Procrustes)
//     so recomputations do not visibly spin the picture.
//  5. Lay components out left to right in first-seen order with a fixed
//     margin, all resting on the baseline y = 0.
//
// # Incremental refinement
//
// Between full solves a [Refiner] moves one node per call to the closed-form
// weighted least-squares optimum given every other node of its component,
// visiting recently touched nodes first and the rest round-robin.
package layout
