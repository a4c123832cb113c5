// Package domain models daily river-gauge records and the statistics derived from them.
//
// # Data Source
//
// Gauge files are exports from the hydrometric network, one file per station,
// encoded as Windows-1252 text. The station identifier is the file name without
// its .txt extension, upper-cased (see [StationFromFilename]).
//
// # File Conventions
//
// Header lines:
//
//	Lines starting with '#' carry station metadata (name, coordinates, units).
//	They are kept verbatim, in order, and never interpreted.
//
// Data lines:
//
//	"<date>;<time>;<flag>;<value>;<quality>"  →  e.g. "2001-03-14;00:00;1;12.500;A"
//	Fields are ';'-separated. Field 0 is a YYYY-MM-DD date, field 3 is the reading
//	as a decimal number. Later exports append extra columns, so by default a data
//	line needs five or more fields ([ColumnsAtLeast]); [ColumnsExact] restores the
//	older strict five-field shape. A line that does not fit the shape is treated as
//	header text rather than rejected.
//
// Missing readings:
//
//	"-999.000" is the network's sentinel for a missing reading. The normalizer
//	turns it into a [Reading] with no value; nothing downstream compares against
//	the sentinel. Values such as -998.999 or -999.001 are ordinary readings.
//
// # Statistics
//
// Descriptive statistics use the population standard deviation. Hydrological
// indicators use linearly interpolated percentiles and the sample standard
// deviation for the coefficient of variation. Q95 is the 5th percentile: the
// low flow exceeded 95% of the time.
//
// The duration curve ranks valid readings in descending order and assigns each
// the exceedance probability rank/n*100.
//
// # Missing-Data Strategies
//
// The monthly cycle and the gap-filled series take a [MissingStrategy]:
//
//	mask     missing readings are left out (default)
//	mean     missing readings take the mean of all valid readings
//	monthly  missing readings take the mean of their calendar month
//
// The period, descriptive and indicator computations ignore the strategy and
// always work on the valid readings only.
//
// # ID Generation
//
// Report IDs are deterministic SHA-256 hashes of station|options|content, so
// reprocessing a file yields the same ID and downstream consumers can
// deduplicate without coordination. See [generateID].
package domain
