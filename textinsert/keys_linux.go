package textinsert

import "time"

// keyDeviceSettle is how long a new uinput keyboard takes to register.
const keyDeviceSettle = 2 * time.Second
