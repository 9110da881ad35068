package ui

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"facecrop-go/internal/config"
)

// classifierLabels maps radio labels to detect kinds.
var classifierLabels = map[string]string{
	"Haar": "haar",
	"LBP":  "lbp",
	"Pigo": "pigo",
}

var classifierOrder = []string{"Haar", "LBP", "Pigo"}

// SessionPanel holds the session form, the classifier choice and the
// start/stop button.
type SessionPanel struct {
	Path         *widget.Entry
	FileName     *widget.Entry
	InitialDelay *widget.Entry
	CropPeriod   *widget.Entry
	PhotoCount   *widget.Entry
	Browse       *widget.Button
	Classifier   *widget.RadioGroup
	StartStop    *widget.Button

	content fyne.CanvasObject
}

// NewSessionPanel builds the panel pre-filled from defaults. onClassifier
// is called with a detect kind when the user picks a classifier, and
// onStartStop when the button is pressed.
func NewSessionPanel(window fyne.Window, defaults config.Session, onClassifier func(kind string), onStartStop func()) *SessionPanel {
	p := &SessionPanel{
		Path:         widget.NewEntry(),
		FileName:     widget.NewEntry(),
		InitialDelay: widget.NewEntry(),
		CropPeriod:   widget.NewEntry(),
		PhotoCount:   widget.NewEntry(),
	}
	p.Path.SetPlaceHolder("working directory")
	p.SetForm(defaults.Form())

	p.Browse = widget.NewButton("Browse...", func() {
		dialog.ShowFolderOpen(func(dir fyne.ListableURI, err error) {
			if err != nil || dir == nil {
				return
			}
			p.Path.SetText(dir.Path())
		}, window)
	})

	p.Classifier = widget.NewRadioGroup(classifierOrder, func(label string) {
		if kind, ok := classifierLabels[label]; ok && onClassifier != nil {
			onClassifier(kind)
		}
	})
	p.Classifier.Horizontal = true

	p.StartStop = widget.NewButton("Start Camera", onStartStop)
	p.StartStop.Importance = widget.HighImportance
	p.StartStop.Disable()

	form := widget.NewForm(
		widget.NewFormItem("Path", container.NewBorder(nil, nil, nil, p.Browse, p.Path)),
		widget.NewFormItem("File name", p.FileName),
		widget.NewFormItem("Initial delay (s)", p.InitialDelay),
		widget.NewFormItem("Crop period (s)", p.CropPeriod),
		widget.NewFormItem("Photo count", p.PhotoCount),
	)
	p.content = container.NewVBox(
		widget.NewLabelWithStyle("Session", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		form,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Classifier", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		p.Classifier,
		widget.NewSeparator(),
		p.StartStop,
	)
	return p
}

// Content returns the panel's canvas object.
func (p *SessionPanel) Content() fyne.CanvasObject {
	return p.content
}

// Form returns the raw text of the session fields.
func (p *SessionPanel) Form() config.SessionForm {
	return config.SessionForm{
		Path:         p.Path.Text,
		FileName:     p.FileName.Text,
		InitialDelay: p.InitialDelay.Text,
		CropPeriod:   p.CropPeriod.Text,
		PhotoCount:   p.PhotoCount.Text,
	}
}

// SetForm fills the session fields.
func (p *SessionPanel) SetForm(f config.SessionForm) {
	p.Path.SetText(f.Path)
	p.FileName.SetText(f.FileName)
	p.InitialDelay.SetText(f.InitialDelay)
	p.CropPeriod.SetText(f.CropPeriod)
	p.PhotoCount.SetText(f.PhotoCount)
}

// SetPhotoCount refreshes the photo count field.
func (p *SessionPanel) SetPhotoCount(n int) {
	p.PhotoCount.SetText(strconv.Itoa(n))
}

// SetRunning locks the inputs while a session is active and flips the button.
func (p *SessionPanel) SetRunning(running bool) {
	inputs := []fyne.Disableable{p.Path, p.FileName, p.InitialDelay, p.CropPeriod, p.PhotoCount, p.Browse, p.Classifier}
	for _, w := range inputs {
		if running {
			w.Disable()
		} else {
			w.Enable()
		}
	}
	if running {
		p.StartStop.SetText("Stop Camera")
		p.StartStop.Importance = widget.DangerImportance
	} else {
		p.StartStop.SetText("Start Camera")
		p.StartStop.Importance = widget.HighImportance
	}
	p.StartStop.Refresh()
}

// SetClassifierReady enables Start only once a classifier has loaded.
func (p *SessionPanel) SetClassifierReady(ready bool) {
	if ready {
		p.StartStop.Enable()
	} else {
		p.StartStop.Disable()
	}
}

// SelectClassifier selects the radio entry for kind, firing its callback.
func (p *SessionPanel) SelectClassifier(kind string) {
	for _, label := range classifierOrder {
		if classifierLabels[label] == kind {
			p.Classifier.SetSelected(label)
			return
		}
	}
}
