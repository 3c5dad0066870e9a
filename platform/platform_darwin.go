//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c -fobjc-arc -mmacosx-version-min=11.0
#cgo LDFLAGS: -framework AppKit -framework ApplicationServices -framework AVFoundation -framework Foundation

#import <AppKit/AppKit.h>
#import <ApplicationServices/ApplicationServices.h>
#import <AVFoundation/AVFoundation.h>
#include <stdlib.h>
#include <string.h>

static char* frontmostBundleID(void) {
	@autoreleasepool {
		NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
		if (app == nil || app.bundleIdentifier == nil) {
			return NULL;
		}
		return strdup([app.bundleIdentifier UTF8String]);
	}
}

static char* mainBundleID(void) {
	@autoreleasepool {
		NSString *bid = [[NSBundle mainBundle] bundleIdentifier];
		if (bid == nil) {
			return NULL;
		}
		return strdup([bid UTF8String]);
	}
}

static int activateBundleID(const char *bid) {
	@autoreleasepool {
		NSString *s = [NSString stringWithUTF8String:bid];
		NSArray<NSRunningApplication *> *apps = [NSRunningApplication runningApplicationsWithBundleIdentifier:s];
		if (apps.count == 0) {
			return -1;
		}
		return [apps.firstObject activateWithOptions:NSApplicationActivateIgnoringOtherApps] ? 0 : -2;
	}
}

static int axTrusted(int prompt) {
	if (!prompt) {
		return AXIsProcessTrusted() ? 1 : 0;
	}
	NSDictionary *opts = @{(__bridge id)kAXTrustedCheckOptionPrompt: @YES};
	return AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)opts) ? 1 : 0;
}

static int postEventAccess(int request) {
	if (@available(macOS 10.15, *)) {
		return (request ? CGRequestPostEventAccess() : CGPreflightPostEventAccess()) ? 1 : 0;
	}
	return 1;
}

// 0 not determined, 1 restricted, 2 denied, 3 authorized
static int microphoneStatus(void) {
	return (int)[AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
}

static int requestMicrophone(void) {
	dispatch_semaphore_t sem = dispatch_semaphore_create(0);
	__block BOOL granted = NO;
	[AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL ok) {
		granted = ok;
		dispatch_semaphore_signal(sem);
	}];
	dispatch_semaphore_wait(sem, dispatch_time(DISPATCH_TIME_NOW, 60 * NSEC_PER_SEC));
	return granted ? 1 : 0;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"os/exec"
	"unsafe"
)

type darwin struct {
	self string
}

// New returns the macOS capabilities.
func New() Capabilities {
	self := SelfID
	if cstr := C.mainBundleID(); cstr != nil {
		self = C.GoString(cstr)
		C.free(unsafe.Pointer(cstr))
	}
	return &darwin{self: self}
}

func (d *darwin) SelfID() string { return d.self }

func (d *darwin) FrontmostApp() (string, bool) {
	cstr := C.frontmostBundleID()
	if cstr == nil {
		return "", false
	}
	defer C.free(unsafe.Pointer(cstr))
	id := C.GoString(cstr)
	return id, id != ""
}

func (d *darwin) Activate(id string) error {
	if id == "" {
		return errors.New("empty bundle id")
	}
	cid := C.CString(id)
	defer C.free(unsafe.Pointer(cid))

	switch C.activateBundleID(cid) {
	case 0:
		return nil
	case -1:
		return fmt.Errorf("application not running: %s", id)
	default:
		return fmt.Errorf("activate %s: refused", id)
	}
}

func (d *darwin) CheckPermission(p Permission) Status {
	switch p {
	case Accessibility:
		return boolStatus(C.axTrusted(0) == 1)
	case PostEvent:
		return boolStatus(C.postEventAccess(0) == 1)
	case Microphone:
		return micStatus(int(C.microphoneStatus()))
	default:
		return StatusDenied
	}
}

func (d *darwin) RequestPermission(p Permission) Status {
	switch p {
	case Accessibility:
		return boolStatus(C.axTrusted(1) == 1)
	case PostEvent:
		return boolStatus(C.postEventAccess(1) == 1)
	case Microphone:
		switch st := d.CheckPermission(Microphone); st {
		case StatusNotDetermined:
			return boolStatus(C.requestMicrophone() == 1)
		case StatusDenied, StatusRestricted:
			// the system prompt only appears once; send the user to Settings
			_ = exec.Command("open", "x-apple.systempreferences:com.apple.preference.security?Privacy_Microphone").Start()
			return st
		default:
			return st
		}
	default:
		return StatusDenied
	}
}

func micStatus(v int) Status {
	switch v {
	case 0:
		return StatusNotDetermined
	case 1:
		return StatusRestricted
	case 2:
		return StatusDenied
	default:
		return StatusGranted
	}
}

func boolStatus(ok bool) Status {
	if ok {
		return StatusGranted
	}
	return StatusDenied
}
