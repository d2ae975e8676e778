package compose

// Canvas unit conversions. SVG user units are CSS pixels at 96 per inch;
// canvas declarations are physical so the converted PDF comes out at the
// journal's column width.
const (
	pxPerInch = 96.0
	mmPerInch = 25.4
	ptPerInch = 72.0
)

// unitToPx returns the number of pixel user units per canvas unit.
func unitToPx(unit string) float64 {
	switch unit {
	case "mm":
		return pxPerInch / mmPerInch
	case "cm":
		return pxPerInch / 2.54
	case "in":
		return pxPerInch
	case "px":
		return 1
	}
	return pxPerInch / mmPerInch
}

// ptToUnit converts a point size into canvas units.
func ptToUnit(pt float64, unit string) float64 {
	inches := pt / ptPerInch
	switch unit {
	case "mm":
		return inches * mmPerInch
	case "cm":
		return inches * 2.54
	case "in":
		return inches
	case "px":
		return inches * pxPerInch
	}
	return inches * mmPerInch
}

// inToUnit converts inches into canvas units.
func inToUnit(in float64, unit string) float64 {
	switch unit {
	case "mm":
		return in * mmPerInch
	case "cm":
		return in * 2.54
	case "in":
		return in
	case "px":
		return in * pxPerInch
	}
	return in * mmPerInch
}
