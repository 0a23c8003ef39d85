// Package reminders emails borrowers whose loans are overdue.
//
// A Job scans for loans past their due date by more than a grace period,
// claims each one so it is notified once, and sends a reminder. A claim is
// released when delivery fails so the next tick tries again. The job reads
// account names and emails but never writes account rows.
package reminders
