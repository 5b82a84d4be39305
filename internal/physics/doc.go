// Package physics computes hard-disk collision times and collision responses.
//
// All functions are pure with respect to their inputs except the Resolve*
// family, which update velocities and collision counters in a [particle.Store]:
//
//   - [WallTime], [WallTimes]: time until a disk meets a wall
//   - [ImpactStats], [PairTime]: time until two disks touch
//   - [ResolveWall], [ResolvePair]: post-collision velocities
//   - [Restitution]: restitution choice under TC regularisation
//
// # Walls
//
// The box spans [0, XMax] x [0, YMax]. [AxisX] names the pair of walls met by
// horizontal motion and [AxisY] the pair met by vertical motion. Walls have
// infinite mass and their state never changes.
//
// # Inelastic collapse
//
// For restitution below one, densely packed disks can collide ever more
// often with intervals shrinking to zero. With [TC] enabled, any collision
// preceded by a free flight shorter than the threshold is resolved elastically.
package physics
