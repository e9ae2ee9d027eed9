package scheduler

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"tilawa_backend/internals/configs"
	notifService "tilawa_backend/internals/features/notifications/service"
	paymentService "tilawa_backend/internals/features/payments/service"
	subService "tilawa_backend/internals/features/subscriptions/service"
)

const batchSize = 50

// StartSubscriptionSchedulers menyalakan tiga loop background:
//   - auto-renewal: tagih subscription yang due (gagal → cancel permanen)
//   - renewal reminder: notifikasi beberapa hari sebelum tanggal tagihan
//   - pending expiry sweep: bersihkan checkout yang ditinggalkan
//
// Interval bisa di-override via env (RENEWAL_INTERVAL, REMINDER_INTERVAL,
// PENDING_SWEEP_INTERVAL — format time.ParseDuration).
func StartSubscriptionSchedulers(db *gorm.DB) {
	guard := subService.NewDuplicateGuard(db, subService.ExpiryWindowFromEnv())
	notifier := notifService.NewNotificationService(db)
	service := subService.NewSubscriptionService(db, guard, notifier)
	renewal := subService.NewRenewalService(db, paymentService.NewMidtransCollector(db), notifier, nil)

	go renewalLoop(service, renewal, configs.GetEnvDuration("RENEWAL_INTERVAL", 1*time.Hour))
	go reminderLoop(service, renewal, configs.GetEnvDuration("REMINDER_INTERVAL", 6*time.Hour))
	go pendingSweepLoop(guard, configs.GetEnvDuration("PENDING_SWEEP_INTERVAL", 1*time.Hour))

	log.Println("✅ Subscription schedulers aktif (renewal, reminder, pending sweep)")
}

func renewalLoop(service *subService.SubscriptionService, renewal *subService.RenewalService, interval time.Duration) {
	for {
		ctx := context.Background()

		due, err := service.FindDueForRenewal(ctx, batchSize)
		if err != nil {
			log.Printf("[SCHEDULER] gagal ambil subscription due: %v", err)
		} else if len(due) > 0 {
			log.Printf("[SCHEDULER] %d subscription due for renewal", len(due))
			for i := range due {
				// Satu subscription gagal tidak menghentikan batch.
				if _, err := renewal.AttemptAutoRenewal(ctx, due[i].SubscriptionID); err != nil {
					log.Printf("[SCHEDULER] renewal error subscription=%s: %v", due[i].SubscriptionID, err)
				}
			}
		}

		time.Sleep(interval)
	}
}

func reminderLoop(service *subService.SubscriptionService, renewal *subService.RenewalService, interval time.Duration) {
	daysBefore := 3

	for {
		ctx := context.Background()

		rows, err := service.FindNeedingRenewalReminder(ctx, daysBefore, batchSize)
		if err != nil {
			log.Printf("[SCHEDULER] gagal ambil kandidat reminder: %v", err)
		} else {
			for i := range rows {
				days := daysBefore
				if rows[i].SubscriptionEndsAt != nil {
					days = int(time.Until(*rows[i].SubscriptionEndsAt).Hours() / 24)
				}
				if err := renewal.SendRenewalReminder(ctx, &rows[i], days); err != nil {
					log.Printf("[SCHEDULER] reminder error subscription=%s: %v", rows[i].SubscriptionID, err)
				}
			}
		}

		time.Sleep(interval)
	}
}

func pendingSweepLoop(guard *subService.DuplicateGuard, interval time.Duration) {
	for {
		ctx := context.Background()

		expired, err := guard.FindExpiredPending(ctx, batchSize)
		if err != nil {
			log.Printf("[SCHEDULER] gagal ambil pending kedaluwarsa: %v", err)
		} else if len(expired) > 0 {
			log.Printf("[SCHEDULER] %d pending subscription kedaluwarsa", len(expired))
			for i := range expired {
				if err := guard.CancelAsDuplicateOrExpired(ctx, expired[i].SubscriptionID,
					"pending checkout expired without payment"); err != nil {
					log.Printf("[SCHEDULER] sweep error subscription=%s: %v", expired[i].SubscriptionID, err)
				}
			}
		}

		time.Sleep(interval)
	}
}
