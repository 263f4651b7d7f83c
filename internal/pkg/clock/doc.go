// Package clock hides time.Now behind the Clocker interface.
//
// Expiry and cooldown rules compare stored timestamps with Clocker.Now, so
// tests drive them with a Manual clock instead of sleeping.
package clock
