// mkfixture writes a synthetic member table for load tests, drawing diagnosis
// codes from a code-to-category table.
// Usage: go run ./cmd/mkfixture --codes testdata/icd-hcc.csv --out testdata/members-10k.parquet --rows 10000
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gyeh/hccscore/internal/diagnosis"
	"github.com/gyeh/hccscore/internal/model"
	"github.com/gyeh/hccscore/internal/normalize"
	"github.com/gyeh/hccscore/internal/tabular"
)

func main() {
	codesPath := flag.String("codes", "testdata/icd-hcc.csv", "code-to-category table to draw diagnosis codes from")
	out := flag.String("out", "testdata/members-synthetic.csv", "output member table (.csv or .parquet)")
	rows := flag.Int("rows", 1000, "rows to generate")
	seed := flag.Uint64("seed", 1, "random seed")
	maxCodes := flag.Int("max-codes", 6, "max diagnosis codes per member")
	dirty := flag.Float64("dirty", 0.02, "fraction of rows with an unparseable field")
	checkOnly := flag.Bool("check", false, "only print stats of --out, don't write")
	flag.Parse()

	if *checkOnly {
		check(*out)
		return
	}

	cm, err := diagnosis.LoadCodeMapFile(*codesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load code map: %v\n", err)
		os.Exit(1)
	}
	codes := cm.Codes()

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	dualCodes := []string{"0", "1", "2", "3", "4", "5", "6", "8", "9", "9", "9", "9"}
	base := time.Date(1925, 1, 1, 0, 0, 0, 0, time.UTC)

	members := make([]model.MemberRow, *rows)
	for i := range members {
		dob := base.AddDate(0, 0, rng.IntN(365*80)).Format("02-01-2006")
		gender := "F"
		if rng.IntN(2) == 1 {
			gender = "M"
		}
		dual := dualCodes[rng.IntN(len(dualCodes))]
		orec := strconv.Itoa(rng.IntN(4))
		lti := "N"
		if rng.Float64() < 0.05 {
			lti = "Y"
		}

		n := rng.IntN(*maxCodes + 1)
		quoted := make([]string, n)
		for j := range quoted {
			quoted[j] = "'" + codes[rng.IntN(len(codes))] + "'"
		}
		diag := "[" + strings.Join(quoted, ", ") + "]"

		if rng.Float64() < *dirty {
			switch rng.IntN(3) {
			case 0:
				dob = "unknown"
			case 1:
				gender = "U"
			default:
				diag = strings.Trim(diag, "[]")
			}
		}

		members[i] = model.MemberRow{
			MemberID:          fmt.Sprintf("SYN%07d", i+1),
			DOB:               &dob,
			Gender:            &gender,
			DualStatus:        &dual,
			EntitlementReason: &orec,
			Institutional:     &lti,
			DiagnosisCodes:    &diag,
		}
	}

	if err := tabular.WriteMembers(*out, members); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d rows to %s (%d distinct codes available)\n", len(members), *out, len(codes))
}

func check(path string) {
	rows, err := tabular.ReadMembers(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read: %v\n", err)
		os.Exit(1)
	}
	fieldErrors := make(map[string]int)
	genders := make(map[model.Gender]int)
	var institutional, codes int
	for i := range rows {
		p := normalize.ToPatientRecord(&rows[i])
		for _, fe := range p.FieldErrors {
			fieldErrors[fe.Field]++
		}
		genders[p.Gender]++
		if p.Institutional {
			institutional++
		}
		codes += len(p.DiagnosisCodes)
	}
	fmt.Printf("Rows: %d\n", len(rows))
	fmt.Printf("Gender: female %d, male %d, unknown %d\n",
		genders[model.GenderFemale], genders[model.GenderMale], genders[model.GenderUnknown])
	fmt.Printf("Institutional: %d\n", institutional)
	fmt.Printf("Diagnosis codes: %d\n", codes)
	for _, field := range model.MemberColumns() {
		if n := fieldErrors[field]; n > 0 {
			fmt.Printf("  %-22s %d field errors\n", field, n)
		}
	}
}
