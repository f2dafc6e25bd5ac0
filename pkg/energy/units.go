package energy

// JoulesPerKWH is the number of joules in one kilowatt-hour.
const JoulesPerKWH = 3_600_000.0

// JoulesToKWH converts joules to kilowatt-hours. No rounding is applied.
func JoulesToKWH(joules float64) float64 {
	return joules / JoulesPerKWH
}
