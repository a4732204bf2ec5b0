package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/eventreg/backend/internal/database"
)

// DefaultProviderTimeout bounds each provider attempt so background
// deliveries cannot hang indefinitely
const DefaultProviderTimeout = 30 * time.Second

type outcomeJob struct {
	submission database.Submission
	status     database.SubmissionStatus
	reason     string
}

// Dispatcher sends outcome notifications through an ordered list of
// providers, falling back to the next provider on failure. Dispatch runs on
// background workers so it is never on the caller's response path.
type Dispatcher struct {
	providers []Provider
	timeout   time.Duration

	jobs chan outcomeJob
	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewDispatcher creates a dispatcher trying providers in the given order
func NewDispatcher(providers ...Provider) *Dispatcher {
	return &Dispatcher{
		providers: providers,
		timeout:   DefaultProviderTimeout,
		jobs:      make(chan outcomeJob, 64),
		quit:      make(chan struct{}),
	}
}

// Start launches the background delivery workers
func (d *Dispatcher) Start(numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	log.Printf("Starting %d notification workers", numWorkers)

	for i := 0; i < numWorkers; i++ {
		d.wg.Add(1)
		go d.process(i)
	}
}

// Stop finishes queued deliveries and stops the workers
func (d *Dispatcher) Stop() {
	d.once.Do(func() {
		close(d.quit)
	})
	d.wg.Wait()
}

// Enqueue schedules an outcome notification without blocking. A full buffer
// means the notification is dropped and logged; undelivered notifications
// are accepted permanent loss.
func (d *Dispatcher) Enqueue(sub *database.Submission, status database.SubmissionStatus, reason string) bool {
	job := outcomeJob{submission: *sub, status: status, reason: reason}
	select {
	case d.jobs <- job:
		return true
	default:
		log.Printf("Notification queue full, dropping outcome email for %s", sub.ReferenceID)
		return false
	}
}

func (d *Dispatcher) process(workerID int) {
	defer d.wg.Done()

	for {
		select {
		case job := <-d.jobs:
			result := d.NotifyOutcome(context.Background(), &job.submission, job.status, job.reason)
			if result.Success {
				log.Printf("Outcome email for %s sent via %s", job.submission.ReferenceID, result.Provider)
			} else {
				log.Printf("Outcome email for %s failed: %s", job.submission.ReferenceID, result.Error)
			}
		case <-d.quit:
			// Drain what is already queued before exiting
			for {
				select {
				case job := <-d.jobs:
					d.NotifyOutcome(context.Background(), &job.submission, job.status, job.reason)
				default:
					return
				}
			}
		}
	}
}

// NotifyOutcome renders the outcome message and attempts delivery through
// each configured provider in order. It never returns an error; the caller
// gets a structured result.
func (d *Dispatcher) NotifyOutcome(ctx context.Context, sub *database.Submission, status database.SubmissionStatus, reason string) Result {
	var msg Message
	switch status {
	case database.StatusApproved:
		msg = renderApproval(sub)
	case database.StatusRejected:
		msg = renderRejection(sub, reason)
	default:
		return Result{Success: false, Error: fmt.Sprintf("no notification for status %q", status)}
	}

	var lastErr string
	for _, provider := range d.providers {
		if !provider.Configured() {
			log.Printf("Notification provider %s not configured, skipping", provider.Name())
			continue
		}

		attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := provider.Send(attemptCtx, msg)
		cancel()

		if err == nil {
			return Result{Success: true, Provider: provider.Name()}
		}

		lastErr = err.Error()
		log.Printf("Notification provider %s failed for %s: %v", provider.Name(), sub.ReferenceID, err)
	}

	if lastErr == "" {
		lastErr = "no notification provider configured"
	}
	return Result{Success: false, Error: lastErr}
}

func renderApproval(sub *database.Submission) Message {
	fullName := sub.FirstName + " " + sub.LastName
	subject := "Your registration has been approved"
	plain := fmt.Sprintf("Congratulations %s! Your registration %s has been approved.",
		fullName, sub.ReferenceID)

	html := fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: Arial, sans-serif; line-height: 1.6; }
			.container { max-width: 600px; margin: 0 auto; padding: 20px; }
			.header { background-color: #16A34A; color: white; padding: 10px; text-align: center; }
			.content { padding: 20px; }
			.reference { font-size: 1.2em; font-weight: bold; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>Registration Approved</h1>
			</div>
			<div class="content">
				<h2>Congratulations %s!</h2>
				<p>Your payment has been verified and your registration is confirmed.</p>
				<p>Your reference code: <span class="reference">%s</span></p>
				<p>Please keep this code; you will need it at the event.</p>
				<p>Best regards,<br>The Event Team</p>
			</div>
		</div>
	</body>
	</html>
	`, fullName, sub.ReferenceID)

	return Message{
		ToEmail:     sub.Email,
		ToName:      fullName,
		Subject:     subject,
		PlainText:   plain,
		HTMLContent: html,
	}
}

func renderRejection(sub *database.Submission, reason string) Message {
	fullName := sub.FirstName + " " + sub.LastName
	subject := "Update on your registration"
	plain := fmt.Sprintf("Hello %s, your registration %s could not be approved. Reason: %s",
		fullName, sub.ReferenceID, reason)

	html := fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: Arial, sans-serif; line-height: 1.6; }
			.container { max-width: 600px; margin: 0 auto; padding: 20px; }
			.header { background-color: #DC2626; color: white; padding: 10px; text-align: center; }
			.content { padding: 20px; }
			.reference { font-size: 1.2em; font-weight: bold; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>Registration Not Approved</h1>
			</div>
			<div class="content">
				<h2>Hello %s,</h2>
				<p>We reviewed your submission <span class="reference">%s</span> and could not approve it.</p>
				<p>Reason: %s</p>
				<p>If you believe this is a mistake, please contact us with your reference code.</p>
				<p>Best regards,<br>The Event Team</p>
			</div>
		</div>
	</body>
	</html>
	`, fullName, sub.ReferenceID, reason)

	return Message{
		ToEmail:     sub.Email,
		ToName:      fullName,
		Subject:     subject,
		PlainText:   plain,
		HTMLContent: html,
	}
}
