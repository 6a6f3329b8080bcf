package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joeecarter/heart-readings-server/reading"
	"github.com/joeecarter/heart-readings-server/request"
)

func main() {
	path := "readings.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	jsonData, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}

	export, err := request.Parse(jsonData)
	if err != nil {
		log.Fatalf("Failed to parse request: %v", err)
	}

	fmt.Printf("Total readings: %d\n", len(export.Data.Readings))
	fmt.Printf("Total ECG recordings: %d\n", len(export.Data.ECG))

	invalid := 0
	byType := map[reading.ECGType]int{}
	for _, r := range export.AllReadings() {
		byType[r.ECGType]++
		if r.Date.IsZero() {
			invalid++
		}
	}
	for _, t := range reading.KnownECGTypes {
		if byType[t] > 0 {
			fmt.Printf("%s: %d\n", t.Label(), byType[t])
		}
	}

	if len(export.Data.ECG) > 0 {
		ecg := export.Data.ECG[0]
		fmt.Printf("First ECG: %s from %s at %s\n", ecg.Classification, ecg.Source, ecg.Start)
		if ecg.NumberOfVoltageMeasurements == 0 {
			fmt.Println("No voltage measurements found")
		}
	}

	if invalid > 0 {
		fmt.Printf("Readings without a date: %d\n", invalid)
	}
	fmt.Println("Request parsed successfully!")
}
