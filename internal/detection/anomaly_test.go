package detection

import (
	"reflect"
	"testing"

	"github.com/tmarini/skywatch/internal/adsb"
	"github.com/tmarini/skywatch/internal/config"
)

func bp(v bool) *bool { return &v }

func newAnomalyClassifier() *AnomalyClassifier {
	return NewAnomalyClassifier(config.DefaultConfig().Detection.Anomaly)
}

func TestAnomalyClassify(t *testing.T) {
	c := newAnomalyClassifier()

	tests := []struct {
		name    string
		cur     adsb.AircraftState
		prev    *adsb.AircraftState
		elapsed float64
		want    []string
	}{
		{
			name: "nominal cruise",
			cur:  adsb.AircraftState{AltBaroFt: ip(35000), GroundSpeedKt: fp(450), Squawk: "1200"},
			want: nil,
		},
		{
			name: "emergency squawk",
			cur:  adsb.AircraftState{AltBaroFt: ip(35000), GroundSpeedKt: fp(450), Squawk: "7700"},
			want: []string{"SQUAWK: #7700"},
		},
		{
			name: "radio failure squawk",
			cur:  adsb.AircraftState{Squawk: "7600"},
			want: []string{"SQUAWK: #7600"},
		},
		{
			name: "overspeed",
			cur:  adsb.AircraftState{AltBaroFt: ip(35000), GroundSpeedKt: fp(700)},
			want: []string{"GS alta: 700 kt"},
		},
		{
			name: "slow while airborne",
			cur:  adsb.AircraftState{AltBaroFt: ip(5000), GroundSpeedKt: fp(20)},
			want: []string{"GS bassa: 20 kt"},
		},
		{
			name: "slow while taxiing is expected",
			cur:  adsb.AircraftState{AltBaroFt: ip(5000), GroundSpeedKt: fp(20), Ground: bp(true)},
			want: nil,
		},
		{
			name: "altitude above envelope",
			cur:  adsb.AircraftState{AltBaroFt: ip(65000), GroundSpeedKt: fp(450)},
			want: []string{"ALT alta: 65000 ft"},
		},
		{
			name: "low while airborne",
			cur:  adsb.AircraftState{AltBaroFt: ip(300), GroundSpeedKt: fp(200)},
			want: []string{"ALT bassa: 300 ft"},
		},
		{
			name: "low while on the ground is expected",
			cur:  adsb.AircraftState{AltBaroFt: ip(300), GroundSpeedKt: fp(200), Ground: bp(true)},
			want: nil,
		},
		{
			name: "negative altitude reads as grounded",
			cur:  adsb.AircraftState{AltBaroFt: ip(-100), GroundSpeedKt: fp(200)},
			want: nil,
		},
		{
			name:    "speed jump between cycles",
			cur:     adsb.AircraftState{AltBaroFt: ip(10000), GroundSpeedKt: fp(400)},
			prev:    &adsb.AircraftState{AltBaroFt: ip(10000), GroundSpeedKt: fp(100)},
			elapsed: 10,
			want:    []string{"ΔGS anomalo: +300 kt"},
		},
		{
			name:    "speed drop between cycles",
			cur:     adsb.AircraftState{AltBaroFt: ip(10000), GroundSpeedKt: fp(100)},
			prev:    &adsb.AircraftState{AltBaroFt: ip(10000), GroundSpeedKt: fp(400)},
			elapsed: 10,
			want:    []string{"ΔGS anomalo: -300 kt"},
		},
		{
			name:    "vertical rate outlier",
			cur:     adsb.AircraftState{AltBaroFt: ip(12000), GroundSpeedKt: fp(400)},
			prev:    &adsb.AircraftState{AltBaroFt: ip(10000), GroundSpeedKt: fp(400)},
			elapsed: 10,
			want:    []string{"VS anomala: 12000 fpm"},
		},
		{
			name:    "deltas need elapsed time",
			cur:     adsb.AircraftState{AltBaroFt: ip(12000), GroundSpeedKt: fp(400)},
			prev:    &adsb.AircraftState{AltBaroFt: ip(10000), GroundSpeedKt: fp(100)},
			elapsed: 0,
			want:    nil,
		},
		{
			name:    "combined findings sorted",
			cur:     adsb.AircraftState{AltBaroFt: ip(35000), GroundSpeedKt: fp(700), Squawk: "7500"},
			prev:    &adsb.AircraftState{AltBaroFt: ip(35000), GroundSpeedKt: fp(400)},
			elapsed: 10,
			want:    []string{"GS alta: 700 kt", "SQUAWK: #7500", "ΔGS anomalo: +300 kt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(&tt.cur, tt.prev, tt.elapsed)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnomalyMissingDataIsSilent(t *testing.T) {
	c := newAnomalyClassifier()
	if got := c.Classify(&adsb.AircraftState{Hex: "abc"}, nil, 0); got != nil {
		t.Errorf("Classify() on empty state = %v, want nil", got)
	}
}
