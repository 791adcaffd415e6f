// cmd/lockersim/main.go
//
// lockersim drives the locker endpoints the way a pickup terminal would:
// fetch the code for a reservation, unlock, then confirm. With -race it
// fires N concurrent confirms for the same reservation and reports how
// many the service let through (the answer should always be one).
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
)

func main() {
	baseURL := flag.String("url", getEnv("API_URL", "http://localhost:8080"), "API base URL")
	reservationID := flag.Int64("reservation", 0, "reservation to pick up")
	race := flag.Int("race", 0, "number of concurrent confirm attempts")
	flag.Parse()

	if *reservationID == 0 {
		log.Fatal("-reservation is required")
	}

	var otp struct {
		OTP        string `json:"otp"`
		ValidUntil string `json:"valid_until"`
	}
	if err := getJSON(fmt.Sprintf("%s/iot/reservations/%d/otp", *baseURL, *reservationID), &otp); err != nil {
		log.Fatalf("Failed to fetch pickup code: %v", err)
	}
	log.Printf("Pickup code %s valid until %s", otp.OTP, otp.ValidUntil)

	var session struct {
		Slot   string `json:"locker_id"`
		UserID int64  `json:"user_id"`
		BookID int64  `json:"book_id"`
	}
	if err := postJSON(*baseURL+"/iot/lockers/unlock", map[string]string{"otp": otp.OTP}, &session); err != nil {
		log.Fatalf("Unlock failed: %v", err)
	}
	log.Printf("Locker %s opened for user %d, book %d", session.Slot, session.UserID, session.BookID)

	confirm := map[string]int64{"user_id": session.UserID, "book_id": session.BookID}

	if *race > 1 {
		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded := 0
		for i := 0; i < *race; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				var loan struct {
					LoanID int64 `json:"loan_id"`
				}
				if err := postJSON(*baseURL+"/iot/lockers/confirm_pickup", confirm, &loan); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		log.Printf("%d of %d concurrent confirms succeeded", succeeded, *race)
		if succeeded != 1 {
			os.Exit(1)
		}
		return
	}

	var loan struct {
		LoanID int64  `json:"loan_id"`
		Due    string `json:"due_date"`
	}
	if err := postJSON(*baseURL+"/iot/lockers/confirm_pickup", confirm, &loan); err != nil {
		log.Fatalf("Confirm failed: %v", err)
	}
	log.Printf("Loan %d issued, due %s", loan.LoanID, loan.Due)
}

func getJSON(url string, v any) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func postJSON(url string, payload, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
