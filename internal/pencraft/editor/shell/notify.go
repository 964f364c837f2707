package shell

type NotificationKind string

const (
	NotifyInfo    NotificationKind = "info"
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Notification всплывающее сообщение для пользователя редактора.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
}

type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}

var (
	uploadingNotification = Notification{
		Kind:        NotifyInfo,
		Title:       "Uploading image...",
		Description: "Please wait while we upload your image.",
	}
	uploadedNotification = Notification{
		Kind:        NotifySuccess,
		Title:       "Image uploaded",
		Description: "Your image has been uploaded successfully.",
	}
)

const genericUploadError = "There was an error uploading your image."

func uploadFailedNotification(err error) Notification {
	desc := genericUploadError
	if err != nil && err.Error() != "" {
		desc = err.Error()
	}
	return Notification{Kind: NotifyError, Title: "Upload failed", Description: desc}
}
