// Package features defines the fixed 18-column solar-wind observation the
// classifier is trained on, and the parser that builds it from raw text.
package features

// Count is the number of features the classifier expects.
const Count = 18

// Names lists the feature columns in classifier order. The order is part of
// the contract with the trained model.
var Names = [Count]string{
	"Speed_bulk_proton",
	"Temp",
	"Density",
	"proton_xvelocity",
	"proton_yvelocity",
	"alpha_density",
	"alpha_bulk_speed",
	"alpha_thermal",
	"Bx_gsm",
	"By_gsm",
	"Bz_gsm",
	"Bx_gse",
	"By_gse",
	"Bz_gse",
	"mean_integrated_flux_s16_mod",
	"mean_integrated_flux_s19_mod",
	"mean_integrated_flux_s9_mod",
	"mean_integrated_flux_s11_mod",
}

// ExampleCSV is a known-good observation used to prefill input forms.
const ExampleCSV = "322.95847206537087,53.03811629704764,5.785019113890819," +
	"-322.95847206537087,11.754848539463634,0.3016128240843143," +
	"305.2861513691853,72.94986294582651,-3.7569525,2.9090173," +
	"-6.580824,-3.7569525,5.852858,-4.1849346,27734126.98412698," +
	"88106989.24731185,64486120.67346436,138287344.7299542"

// Vector is a single observation. Field order matches Names.
type Vector struct {
	SpeedBulkProton float64 // proton bulk speed (km/s)
	Temp            float64 // proton temperature
	Density         float64 // proton density (n/cc)
	ProtonXVelocity float64
	ProtonYVelocity float64
	AlphaDensity    float64
	AlphaBulkSpeed  float64
	AlphaThermal    float64
	BxGSM           float64 // IMF components, GSM frame (nT)
	ByGSM           float64
	BzGSM           float64
	BxGSE           float64 // IMF components, GSE frame (nT)
	ByGSE           float64
	BzGSE           float64
	FluxS16         float64 // mean_integrated_flux_s16_mod
	FluxS19         float64 // mean_integrated_flux_s19_mod
	FluxS9          float64 // mean_integrated_flux_s9_mod
	FluxS11         float64 // mean_integrated_flux_s11_mod
}

// Values returns the features in classifier order.
func (v Vector) Values() []float64 {
	return []float64{
		v.SpeedBulkProton,
		v.Temp,
		v.Density,
		v.ProtonXVelocity,
		v.ProtonYVelocity,
		v.AlphaDensity,
		v.AlphaBulkSpeed,
		v.AlphaThermal,
		v.BxGSM,
		v.ByGSM,
		v.BzGSM,
		v.BxGSE,
		v.ByGSE,
		v.BzGSE,
		v.FluxS16,
		v.FluxS19,
		v.FluxS9,
		v.FluxS11,
	}
}

// Float32s returns the features in classifier order as float32, the tensor
// element type used by ONNX exports.
func (v Vector) Float32s() []float32 {
	vals := v.Values()
	out := make([]float32, len(vals))
	for i, x := range vals {
		out[i] = float32(x)
	}
	return out
}

// Map returns the observation keyed by column name.
func (v Vector) Map() map[string]float64 {
	vals := v.Values()
	m := make(map[string]float64, Count)
	for i, name := range Names {
		m[name] = vals[i]
	}
	return m
}

// FromValues builds a Vector from values in classifier order.
func FromValues(vals []float64) (Vector, error) {
	if len(vals) != Count {
		return Vector{}, &ParseError{Kind: WrongArity, Expected: Count, Actual: len(vals)}
	}
	return Vector{
		SpeedBulkProton: vals[0],
		Temp:            vals[1],
		Density:         vals[2],
		ProtonXVelocity: vals[3],
		ProtonYVelocity: vals[4],
		AlphaDensity:    vals[5],
		AlphaBulkSpeed:  vals[6],
		AlphaThermal:    vals[7],
		BxGSM:           vals[8],
		ByGSM:           vals[9],
		BzGSM:           vals[10],
		BxGSE:           vals[11],
		ByGSE:           vals[12],
		BzGSE:           vals[13],
		FluxS16:         vals[14],
		FluxS19:         vals[15],
		FluxS9:          vals[16],
		FluxS11:         vals[17],
	}, nil
}
