// Пакет для управления периодическими задачами обслуживания: закрытие простаивающих сессий редактора и очистка неиспользуемых изображений.
//
// Основные возможности:
//   - Загрузка задач из реестра.
//   - Удаление задач из расписания.
//   - Ручной запуск задачи по имени.
//   - Запуск и остановка диспетчера.
package cronmanager

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/robfig/cron/v3"
)

type CronJobFunc func()

type Job struct {
	Func     CronJobFunc
	Schedule string
}

type JobRegistry map[string]Job

type CronManager struct {
	dispatcher  *cron.Cron
	jobs        map[string]cron.EntryID
	mu          sync.Mutex
	jobRegistry JobRegistry
}

func NewCronManager(jobRegistry JobRegistry) *CronManager {
	dispatcher := cron.New(
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)

	return &CronManager{
		dispatcher:  dispatcher,
		jobs:        make(map[string]cron.EntryID),
		jobRegistry: jobRegistry,
	}
}

// LoadJobs заново добавляет все задачи реестра в расписание.
// Задачи с некорректным расписанием пропускаются, их ошибки возвращаются вместе.
func (cm *CronManager) LoadJobs() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for name, entryID := range cm.jobs {
		cm.dispatcher.Remove(entryID)
		delete(cm.jobs, name)
	}

	var errs []error
	for name, job := range cm.jobRegistry {
		if err := cm.addJob(name, job); err != nil {
			slog.Error("Error adding job", "name", name, "err", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("load jobs: %v", errs)
	}
	return nil
}

func (cm *CronManager) addJob(name string, job Job) error {
	id, err := cm.dispatcher.AddFunc(job.Schedule, func() {
		slog.Debug("Run cron job", "name", name)
		job.Func()
	})
	if err != nil {
		return fmt.Errorf("failed to add job '%s': %w", name, err)
	}
	cm.jobs[name] = id
	return nil
}

// RemoveJob убирает задачу из расписания.
func (cm *CronManager) RemoveJob(name string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if entryID, exists := cm.jobs[name]; exists {
		cm.dispatcher.Remove(entryID)
		delete(cm.jobs, name)
	}
}

// RunNow синхронно выполняет задачу реестра вне расписания.
func (cm *CronManager) RunNow(name string) error {
	cm.mu.Lock()
	job, ok := cm.jobRegistry[name]
	cm.mu.Unlock()
	if !ok {
		return fmt.Errorf("no job function registered for name: %s", name)
	}
	job.Func()
	return nil
}

// Scheduled имена задач в расписании.
func (cm *CronManager) Scheduled() []string {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	names := make([]string, 0, len(cm.jobs))
	for name := range cm.jobs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (cm *CronManager) Start() {
	cm.dispatcher.Start()
}

// Stop останавливает диспетчер и ждет завершения выполняющихся задач.
func (cm *CronManager) Stop() {
	ctx := cm.dispatcher.Stop()
	<-ctx.Done()
}
