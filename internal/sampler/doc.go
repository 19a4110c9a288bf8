// Package sampler drives the fixed-interval loop: it reads every counter,
// differences cumulative counters against the previous tick over measured
// elapsed time, and hands one formatted record per tick to the log.
//
// Each iteration:
//
//  1. Take the tick start time. If the gap since the previous tick start
//     exceeds GapFactor intervals (the machine was suspended), write a
//     separator row.
//  2. Sleep one interval.
//  3. Read all counters; battery counters only every BatteryPoll iterations.
//  4. Compute rates over the time elapsed since step 1.
//  5. Write the record.
//  6. Keep the cumulative readings as the previous sample.
package sampler
