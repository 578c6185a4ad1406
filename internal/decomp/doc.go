// Package decomp decomposes a life-expectancy gap into additive age-group
// contributions with the Horiuchi-Wilmoth-Pool stepwise-replacement method.
//
// The path from baseline to comparison rates is split into equal segments.
// At each segment midpoint the sensitivity of e0 to every rate is estimated
// with a central finite difference, and contributions accumulate as
// gradient * delta / steps. The sum of contributions approaches the direct
// e0 difference as steps grows.
//
// Every evaluation builds a full life table, so one call costs
// steps * len(mx) * 2 builds. WithWorkers spreads the gradient of each step
// across goroutines; accumulation always runs in index order, so results do
// not depend on the worker count.
package decomp
