/*
Package compute implements the pi workload executed by the workers.

Pi is evaluated with Machin's formula

	pi = 16*atan(1/5) - 4*atan(1/239)

where each arctangent is the alternating Taylor series

	atan(1/x) = sum (-1)^k / ((2k+1) * x^(2k+1))

One series term is one step. The Policy decides how many steps and how many
guard digits a request for n decimal places needs:

  - steps: for each series, the smallest K such that the first omitted term is
    below 10^-(n+guard). The series alternates, so the truncation error of the
    sum is bounded by that term, and 16 * 10^-(n+guard) < 10^-n for guard >= 2.
  - guard: at least Policy.GuardDigits and at least ceil(log10(steps)) + 3. Each
    step adds a relative rounding error of about 10^-(n+guard) on values of
    magnitude <= 1; a few operations per step over all steps, multiplied by 16,
    stays below one unit of the n-th decimal.

Progress is reported every max(1, steps/100) steps, so publishing costs at most
about a hundred writes per job whatever its size.
*/
package compute
